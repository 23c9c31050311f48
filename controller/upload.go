package controller

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/upload"
)

// UploadController 生成对象存储直传地址。
type UploadController struct {
	uploadService upload.UploadService
	normalizer    *response.Normalizer
	logger        *zap.Logger
}

func NewUploadController(uploadService upload.UploadService, normalizer *response.Normalizer, logger *zap.Logger) *UploadController {
	return &UploadController{uploadService: uploadService, normalizer: normalizer, logger: logger}
}

// PresignHandler 申请上传地址
// @Summary 申请对象存储直传地址
// @Description 客户端按返回的 method/url/headers 直接上传文件，然后把 objectKey 提交给资料或帖子接口。
// @Tags 文件上传
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PresignUploadDTO true "文件信息"
// @Success 200 {object} docs.SwaggerPresignResponse "成功"
// @Failure 400 {object} docs.SwaggerErrorResponse "文件类型不允许或超过大小上限"
// @Failure 503 {object} docs.SwaggerErrorResponse "对象存储不可用"
// @Router /api/v1/starter-hub/uploads/presign [post]
func (ctrl *UploadController) PresignHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.PresignUploadDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.uploadService.Presign(c.Request.Context(), middleware.TenantFrom(c), claims.UserID, data)
}

func (ctrl *UploadController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	group.POST("/uploads/presign", guards.Auth, guards.Tenant,
		ctrl.normalizer.Handle(response.Route{MessageKey: "uploads.presigned"}, ctrl.PresignHandler))
}
