package i18n

// Options 是一次翻译调用的参数。
type Options struct {
	Lang         string         // 请求解析出的语言，例如 "en"、"zh"
	Args         map[string]any // 模板插值参数，对应消息中的 {{.name}}
	DefaultValue string         // 键不存在时的回退值，为空时回退为键本身
}

// Translator 是响应规范化器依赖的消息翻译能力。
// 实现必须总是返回一个字符串：键缺失或模板失败时回退到 DefaultValue / 键本身。
type Translator interface {
	Translate(key string, opts Options) string
}

// Resolver 根据请求提供的候选语言（查询参数、请求头、Accept-Language）解析出受支持的语言。
type Resolver interface {
	Resolve(candidates ...string) string
}
