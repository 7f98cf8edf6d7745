package controller

import (
	"errors"
	"net/http"

	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	*baseController
}

func (ac AuthController) Login(ctx *gin.Context) {
	type Request struct {
		Username string `json:"username" form:"username" binding:"required,strNotEmpty"`
		Password string `json:"password" form:"password" binding:"required,strNotEmpty"`
	}
	var body Request

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	user, err := ac.app.Repository.User.Authenticate(ctx, nil, body.Username, body.Password, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		ac.app.Logger.Debugf("Login failed for %s: %v", body.Username, err)
		if errors.Is(err, repository.ErrInvalidCredentials) || errors.Is(err, repository.ErrUserInactive) {
			util.ResponseFailed(ctx, http.StatusUnauthorized, err.Error(), nil, nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	refreshToken, accessToken, err := ac.app.JWTService.GenerateRefreshAndAccessToken(auth.JWTPayload{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Rol:      user.Rol,
	})
	if err != nil {
		ac.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user":         user,
		"refreshToken": refreshToken,
		"accessToken":  accessToken,
	})
}

func (ac AuthController) Logout(ctx *gin.Context) {
	user, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	// Tokens are stateless; logout only leaves its trace in the bitacora.
	if err := ac.app.Repository.Audit.Append(ctx, nil, ac.auditContext(ctx, user),
		constant.AuditActionLogout, constant.AuditEntityUser, user.ID, nil); err != nil {
		ac.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (ac AuthController) GetMe(ctx *gin.Context) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	user, err := ac.app.Repository.User.GetById(ctx, nil, authUser.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": user,
	})
}

func (ac AuthController) VerifyJwtAccessToken(ctx *gin.Context) {
	token := ctx.Param("token")

	// Keep in mind that verify jwt token does not check database.
	jwtClaims, err := ac.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), gin.H{
			"tokenValid": false,
		})
		return
	}

	if jwtClaims == nil || jwtClaims.Type != constant.JWT_TYPE_ACCESS {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("invalid jwt token type")), gin.H{
			"tokenValid": false,
		})
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"tokenValid": true,
		"payload":    jwtClaims,
	})
}

func (ac AuthController) RefreshAccessToken(ctx *gin.Context) {
	refreshToken, err := util.ReadRefreshToken(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	jwtClaims, err := ac.app.JWTService.VerifyJwtToken(refreshToken)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if jwtClaims == nil || jwtClaims.Type != constant.JWT_TYPE_REFRESH {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("invalid jwt token type")), nil)
		return
	}

	// Re-read the user so a deactivated or deleted account cannot keep
	// minting fresh access tokens.
	user, err := ac.app.Repository.User.GetById(ctx, nil, jwtClaims.User.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !user.IsActive {
		util.ResponseFailed(ctx, http.StatusUnauthorized, repository.ErrUserInactive.Error(), nil, nil)
		return
	}

	newRefreshToken, newAccessToken, err := ac.app.JWTService.GenerateRefreshAndAccessToken(auth.JWTPayload{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Rol:      user.Rol,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"refreshToken": newRefreshToken,
		"accessToken":  newAccessToken,
	})
}
