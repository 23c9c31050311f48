package docs

// 这个文件定义了专门用于 Swagger 文档注解的类型。
// response.SuccessEnvelope 的 Data 字段是 any，swag 无法从中推断出具体结构，
// 因此为每个在控制器注解中使用的响应数据定义一个带具体 Data 类型的包装器。
// 这些类型只用于生成文档，运行时不会被实例化。

import (
	"github.com/Xushengqwer/starter_hub/models/vo"
)

// envelopeMeta 是成功和失败信封共有的字段
type envelopeMeta struct {
	StatusCode int    `json:"statusCode" example:"200"`
	Message    string `json:"message" example:"操作成功"`
	Timestamp  string `json:"timestamp" example:"2025-01-01T08:00:00+08:00"`
}

// --- 成功响应包装类型 ---

// SwaggerUserinfoResponse 用于 AccountController.RegisterHandler
type SwaggerUserinfoResponse struct {
	envelopeMeta
	Data vo.Userinfo `json:"data"`
}

// SwaggerLoginResponse 用于账号密码登录和手机号登录
type SwaggerLoginResponse struct {
	envelopeMeta
	Data vo.LoginResponse `json:"data"`
}

// SwaggerTokenPairResponse 用于 AuthTokenController.RefreshTokenHandler
type SwaggerTokenPairResponse struct {
	envelopeMeta
	Data vo.TokenPair `json:"data"`
}

// SwaggerEmptyResponse 表示成功但无数据返回（data 为 null），
// 用于发送验证码、登出、修改密码、拉黑和删除用户等接口
type SwaggerEmptyResponse struct {
	envelopeMeta
	Data any `json:"data" swaggertype:"object"`
}

// SwaggerMyAccountResponse 用于获取登录用户的个人信息
type SwaggerMyAccountResponse struct {
	envelopeMeta
	Data vo.MyAccountDetailVO `json:"data"`
}

// SwaggerProfileResponse 用于更新个人资料
type SwaggerProfileResponse struct {
	envelopeMeta
	Data vo.ProfileVO `json:"data"`
}

// SwaggerIdentityListResponse 用于列出当前用户绑定的登录方式
type SwaggerIdentityListResponse struct {
	envelopeMeta
	Data []vo.IdentityVO `json:"data"`
}

// SwaggerUserResponse 用于管理员查询、更新单个用户
type SwaggerUserResponse struct {
	envelopeMeta
	Data vo.UserVO `json:"data"`
}

// SwaggerUserPageResponse 用于管理员分页查询用户
type SwaggerUserPageResponse struct {
	envelopeMeta
	Data vo.UserPageVO `json:"data"`
}

// SwaggerTenantResponse 用于创建和查询单个租户
type SwaggerTenantResponse struct {
	envelopeMeta
	Data vo.TenantVO `json:"data"`
}

// SwaggerTenantPageResponse 用于分页查询租户
type SwaggerTenantPageResponse struct {
	envelopeMeta
	Data vo.TenantPageVO `json:"data"`
}

// SwaggerPostResponse 用于创建、更新和查询单篇帖子
type SwaggerPostResponse struct {
	envelopeMeta
	Data vo.PostVO `json:"data"`
}

// SwaggerPostPageResponse 用于偏移分页的帖子列表
type SwaggerPostPageResponse struct {
	envelopeMeta
	Data vo.PostPageVO `json:"data"`
}

// SwaggerPostFeedResponse 用于游标分页的帖子流
type SwaggerPostFeedResponse struct {
	envelopeMeta
	Data vo.PostFeedVO `json:"data"`
}

// SwaggerPresignResponse 用于获取上传预签名地址
type SwaggerPresignResponse struct {
	envelopeMeta
	Data vo.PresignedUploadVO `json:"data"`
}

// SwaggerNotificationResponse 用于发送通知和标记已读
type SwaggerNotificationResponse struct {
	envelopeMeta
	Data vo.NotificationVO `json:"data"`
}

// SwaggerNotificationPageResponse 用于分页查询我的通知
type SwaggerNotificationPageResponse struct {
	envelopeMeta
	Data vo.NotificationPageVO `json:"data"`
}

// --- 失败响应包装类型 ---

// SwaggerErrorResponse 普通错误，只有消息没有 error 字段
type SwaggerErrorResponse struct {
	StatusCode int    `json:"statusCode" example:"404"`
	Message    string `json:"message" example:"资源不存在"`
	Timestamp  string `json:"timestamp" example:"2025-01-01T08:00:00+08:00"`
}

// SwaggerValidationErrorResponse 参数校验失败，error 为逐字段的消息列表
type SwaggerValidationErrorResponse struct {
	StatusCode int      `json:"statusCode" example:"400"`
	Message    string   `json:"message" example:"请求参数错误"`
	Timestamp  string   `json:"timestamp" example:"2025-01-01T08:00:00+08:00"`
	Error      []string `json:"error" example:"用户名不能为空"`
}
