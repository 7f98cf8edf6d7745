package controller

import (
	"errors"
	"net/http"

	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	*baseController
}

const ErrOnlySuperadmin = "solo un SUPERADMIN puede administrar usuarios"

func (uc UserController) CreateUser(ctx *gin.Context) {
	type Request struct {
		Username       string `json:"username" form:"username" binding:"required,strNotEmpty,max=50"`
		Email          string `json:"email" form:"email" binding:"required,email"`
		Password       string `json:"password" form:"password" binding:"required"`
		NombreCompleto string `json:"nombreCompleto" form:"nombreCompleto" binding:"required,strNotEmpty"`
		Rol            string `json:"rol" form:"rol" binding:"required"`
	}
	var body Request

	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if authUser.Rol != constant.RoleSuperadmin {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrOnlySuperadmin, nil, nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	rol := constant.Role(body.Rol)
	if !rol.Valid() {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Rol inválido", nil, nil)
		return
	}

	if !auth.ValidPasswordStrength(body.Password) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres, mayúsculas, minúsculas y dígitos", nil, nil)
		return
	}

	user, err := uc.app.Repository.User.Create(ctx, nil, uc.auditContext(ctx, authUser), model.User{
		Username:       body.Username,
		Email:          body.Email,
		NombreCompleto: body.NombreCompleto,
		Rol:            rol,
	}, body.Password)
	if err != nil {
		uc.app.Logger.Error(err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.ResponseFailed(ctx, http.StatusConflict, "El usuario o correo ya existe", nil, nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": user,
	})
}

func (uc UserController) GetUsers(ctx *gin.Context) {
	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if authUser.Rol != constant.RoleSuperadmin {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrOnlySuperadmin, nil, nil)
		return
	}

	page, pageSize := util.ParsePagination(ctx)
	users, total, err := uc.app.Repository.User.GetList(ctx, nil, ctx.Query("search"), page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
		"totalPage": util.CalculateTotalPage(total, pageSize),
	})
}

func (uc UserController) GetUserById(ctx *gin.Context) {
	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	userId := ctx.Param("userId")
	if authUser.Rol != constant.RoleSuperadmin && authUser.ID != userId {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrOnlySuperadmin, nil, nil)
		return
	}

	user, err := uc.app.Repository.User.GetById(ctx, nil, userId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": user,
	})
}

func (uc UserController) UpdateUser(ctx *gin.Context) {
	type Request struct {
		Email          string `json:"email" form:"email" binding:"required,email"`
		NombreCompleto string `json:"nombreCompleto" form:"nombreCompleto" binding:"required,strNotEmpty"`
		Rol            string `json:"rol" form:"rol" binding:"required"`
		IsActive       *bool  `json:"isActive" form:"isActive" binding:"required"`
	}
	var body Request

	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if authUser.Rol != constant.RoleSuperadmin {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrOnlySuperadmin, nil, nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	rol := constant.Role(body.Rol)
	if !rol.Valid() {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Rol inválido", nil, nil)
		return
	}

	user, err := uc.app.Repository.User.UpdateProfile(ctx, nil, uc.auditContext(ctx, authUser), ctx.Param("userId"), model.User{
		Email:          body.Email,
		NombreCompleto: body.NombreCompleto,
		Rol:            rol,
		IsActive:       *body.IsActive,
	})
	if err != nil {
		uc.app.Logger.Error(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": user,
	})
}

func (uc UserController) ChangePassword(ctx *gin.Context) {
	type Request struct {
		CurrentPassword string `json:"currentPassword" form:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" form:"newPassword" binding:"required"`
	}
	var body Request

	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if !auth.ValidPasswordStrength(body.NewPassword) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres, mayúsculas, minúsculas y dígitos", nil, nil)
		return
	}

	err = uc.app.Repository.User.ChangePassword(ctx, nil, uc.auditContext(ctx, authUser), authUser.ID, body.CurrentPassword, body.NewPassword)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			util.ResponseFailed(ctx, http.StatusUnauthorized, err.Error(), nil, nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (uc UserController) DeleteUser(ctx *gin.Context) {
	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if authUser.Rol != constant.RoleSuperadmin {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrOnlySuperadmin, nil, nil)
		return
	}

	userId := ctx.Param("userId")
	if userId == authUser.ID {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No puede eliminar su propia cuenta", nil, nil)
		return
	}

	if err := uc.app.Repository.User.SoftDelete(ctx, nil, uc.auditContext(ctx, authUser), userId); err != nil {
		uc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}
