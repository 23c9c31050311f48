package dto

// PresignUploadDTO 申请直传地址
type PresignUploadDTO struct {
	Purpose     string `json:"purpose" binding:"required,oneof=avatar post attachment" example:"avatar"`
	FileName    string `json:"file_name" binding:"required,max=255" example:"me.png"`
	ContentType string `json:"content_type" binding:"required,max=127" example:"image/png"`
	Size        int64  `json:"size" binding:"required,gt=0" example:"20480"`
}
