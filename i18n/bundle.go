package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Xushengqwer/starter_hub/config"
)

//go:embed locales/*.yaml
var localeFS embed.FS

const defaultLanguage = "en"

// Bundle 基于 go-i18n 的 Translator / Resolver 实现。
// 语言表在启动时从内嵌的 locales/*.yaml 加载一次，之后只读，可并发使用。
type Bundle struct {
	bundle   *goi18n.Bundle
	matcher  language.Matcher
	fallback string
}

// NewBundle 加载内嵌的语言文件并构建语言匹配器。
func NewBundle(cfg config.I18nConfig) (*Bundle, error) {
	return newBundleFromFS(cfg, localeFS, "locales")
}

func newBundleFromFS(cfg config.I18nConfig, fsys fs.FS, dir string) (*Bundle, error) {
	fallback := cfg.DefaultLanguage
	if fallback == "" {
		fallback = defaultLanguage
	}
	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("无效的默认语言 %q: %w", fallback, err)
	}

	bundle := goi18n.NewBundle(fallbackTag)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("读取语言文件目录失败: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := path.Join(dir, entry.Name())
		buf, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("读取语言文件 %s 失败: %w", p, err)
		}
		if _, err := bundle.ParseMessageFileBytes(buf, p); err != nil {
			return nil, fmt.Errorf("解析语言文件 %s 失败: %w", p, err)
		}
	}

	// 匹配器的第一个标签是默认语言，无法匹配时 Match 返回它
	tags := []language.Tag{fallbackTag}
	for _, l := range cfg.SupportedLanguages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("无效的语言 %q: %w", l, err)
		}
		if tag != fallbackTag {
			tags = append(tags, tag)
		}
	}
	if len(cfg.SupportedLanguages) == 0 {
		for _, tag := range bundle.LanguageTags() {
			if tag != fallbackTag {
				tags = append(tags, tag)
			}
		}
	}

	return &Bundle{
		bundle:   bundle,
		matcher:  language.NewMatcher(tags),
		fallback: fallbackTag.String(),
	}, nil
}

// Translate 实现 Translator。
func (b *Bundle) Translate(key string, opts Options) string {
	def := opts.DefaultValue
	if def == "" {
		def = key
	}
	lang := opts.Lang
	if lang == "" {
		lang = b.fallback
	}

	localizer := goi18n.NewLocalizer(b.bundle, lang, b.fallback)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: opts.Args,
	})
	if err != nil && msg == "" {
		return def
	}
	return msg
}

// Resolve 实现 Resolver：依次尝试每个候选值，返回第一个能匹配到受支持语言的基础语言码。
func (b *Bundle) Resolve(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(candidate)
		if err != nil || len(tags) == 0 {
			continue
		}
		tag, _, confidence := b.matcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		base, _ := tag.Base()
		return base.String()
	}
	return b.fallback
}
