package dto

// PhoneLoginOrRegisterData 手机号验证码登录（不存在则注册）
type PhoneLoginOrRegisterData struct {
	Phone string `json:"phone" binding:"required,ChinesePhone" example:"13812345678"`
	Code  string `json:"code" binding:"required,len=6" example:"123456"`
}

// SendCaptchaRequest 发送验证码请求
type SendCaptchaRequest struct {
	Phone string `json:"phone" binding:"required,ChinesePhone" example:"13812345678"`
}
