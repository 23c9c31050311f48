package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/starter_hub/config"
)

func newTestBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := NewBundle(config.I18nConfig{DefaultLanguage: "en", SupportedLanguages: []string{"en", "zh"}})
	require.NoError(t, err)
	return b
}

func TestTranslate(t *testing.T) {
	b := newTestBundle(t)

	assert.Equal(t, "Resource created", b.Translate("http.success.201", Options{Lang: "en"}))
	assert.Equal(t, "创建成功", b.Translate("http.success.201", Options{Lang: "zh"}))
	assert.Equal(t, "User not found", b.Translate("users.userNotFound", Options{}))
}

func TestTranslateInterpolation(t *testing.T) {
	b := newTestBundle(t)

	msg := b.Translate("validation.required", Options{Lang: "en", Args: map[string]any{"field": "Email"}})
	assert.Equal(t, "Email is required", msg)

	msg = b.Translate("query.invalidSortField", Options{Lang: "zh", Args: map[string]any{"field": "password"}})
	assert.Equal(t, "不允许按 password 排序", msg)
}

func TestTranslateMissingKeyFallsBack(t *testing.T) {
	b := newTestBundle(t)

	assert.Equal(t, "does.not.exist", b.Translate("does.not.exist", Options{Lang: "en"}))
	assert.Equal(t, "fallback", b.Translate("does.not.exist", Options{Lang: "zh", DefaultValue: "fallback"}))
}

func TestTranslateUnsupportedLanguageUsesDefault(t *testing.T) {
	b := newTestBundle(t)

	assert.Equal(t, "Post not found", b.Translate("posts.postNotFound", Options{Lang: "fr"}))
}

func TestResolve(t *testing.T) {
	b := newTestBundle(t)

	cases := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"query param wins", []string{"zh", "", "en-US"}, "zh"},
		{"accept-language with region", []string{"", "", "zh-CN,zh;q=0.9,en;q=0.8"}, "zh"},
		{"unsupported falls through", []string{"fr", "", "en-GB"}, "en"},
		{"nothing supplied", []string{"", "", ""}, "en"},
		{"garbage ignored", []string{"!!", "", ""}, "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.Resolve(tc.candidates...))
		})
	}
}
