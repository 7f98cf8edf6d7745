package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	appcontext "github.com/emisorlabs/emisor/internal/app_context"
	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/gin-gonic/gin"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index    *IndexController
	Auth     *AuthController
	User     *UserController
	Project  *ProjectController
	Template *TemplateController
	Emission *EmissionController
	Report   *ReportController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:    &IndexController{baseController: bc},
		Auth:     &AuthController{baseController: bc},
		User:     &UserController{baseController: bc},
		Project:  &ProjectController{baseController: bc},
		Template: &TemplateController{baseController: bc},
		Emission: &EmissionController{baseController: bc},
		Report:   &ReportController{baseController: bc},
	}
}

func (b *baseController) getAuthUser(ctx *gin.Context) (*auth.JWTPayload, error) {
	user, exists := ctx.Get("user")
	if !exists {
		return nil, errors.New("user not found in context")
	}

	jsonUser, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	var authUser *auth.JWTPayload
	err = json.Unmarshal(jsonUser, &authUser)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return authUser, nil
}

// auditContext builds the actor metadata attached to every bitacora entry
// written on behalf of this request.
func (b *baseController) auditContext(ctx *gin.Context, user *auth.JWTPayload) repository.AuditContext {
	return repository.AuditContext{
		UserID:    user.ID,
		IP:        ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	}
}

func (b *baseController) getProjectRole(ctx *gin.Context, projectId string) (*auth.JWTPayload, constant.Role, *model.Project, error) {
	user, err := b.getAuthUser(ctx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to get auth user: %w", err)
	}

	role, project, err := b.app.Repository.Project.GetRoleOfProject(ctx, nil, projectId, user)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to get project role: %w", err)
	}

	return user, role, project, nil
}
