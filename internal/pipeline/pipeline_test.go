package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/history"
	"github.com/koconnect/koconnect/internal/llm"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/prompts"
	"github.com/koconnect/koconnect/internal/router"
	"github.com/koconnect/koconnect/internal/style"
)

// scriptedCompleter answers by system role so one fake serves both routers.
type scriptedCompleter struct {
	translation string
	styled      string
	styleErr    error
	calls       []string
}

func (s *scriptedCompleter) Complete(_ context.Context, messages []llm.Message, _ ...llm.Option) (string, error) {
	switch messages[0].Content {
	case prompts.TranslationSystemRole:
		s.calls = append(s.calls, "translate")
		return s.translation, nil
	case prompts.StyleSystemRole:
		s.calls = append(s.calls, "style")
		return s.styled, s.styleErr
	}
	return "", errors.New("unexpected system role")
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(context.Context, interface{}) (string, error) {
	f.calls++
	return f.text, f.err
}

func newPipeline(t *testing.T, c *scriptedCompleter, ex Extractor, maxTokens int) *Pipeline {
	t.Helper()
	reg := prompts.Default()
	r := router.New(c, reg, []string{"English", "Japanese", "Chinese", "Vietnamese"})
	return New(r, style.New(c, reg, nil), ex, maxTokens, logger.NewTestLogger(t))
}

func TestProcess_TranslateAndStyle(t *testing.T) {
	c := &scriptedCompleter{translation: "저는 학생이에요", styled: "저는 학생입니다"}
	p := newPipeline(t, c, nil, 0)
	store := history.NewStore()

	res, err := p.Process(context.Background(), store, Input{
		Text: "I am a student", Source: "English", Target: "Korean", Style: "Formal",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"translate", "style"}, c.calls)
	assert.Equal(t, "저는 학생이에요", res.Translation)
	assert.Equal(t, "저는 학생입니다", res.Output)
	assert.Equal(t, domain.StyleFormal, res.AppliedStyle)
	assert.Equal(t, []string{"학생입니다", "학생이에요"}, res.ChangedWords)
	assert.Equal(t, []domain.WordAction{
		{Word: "학생입니다", Action: domain.ActionModified},
		{Word: "학생이에요", Action: domain.ActionRemoved},
	}, res.WordList)

	require.Equal(t, 1, store.Len())
	rec := store.List(history.Filter{})[0]
	assert.True(t, rec.Equal(*res.Record))
	assert.Equal(t, domain.English, rec.SourceLanguage)
	assert.Equal(t, domain.Korean, rec.TargetLanguage)
	assert.Equal(t, "I am a student", rec.InputText)
	assert.Equal(t, "저는 학생입니다", rec.OutputText)
	assert.Equal(t, domain.StyleFormal, rec.AppliedStyle)
}

func TestProcess_KoreanInputComparesAgainstInput(t *testing.T) {
	c := &scriptedCompleter{styled: "저는 학생입니다"}
	p := newPipeline(t, c, nil, 0)

	res, err := p.Process(context.Background(), history.NewStore(), Input{
		Text: "나는 학생이다", Source: "Korean", Target: "Korean", Style: "formal",
	})
	require.NoError(t, err)

	// Korean to Korean skips translation, so the styled text is compared
	// with the learner's own sentence.
	assert.Equal(t, []string{"style"}, c.calls)
	assert.Equal(t, "나는 학생이다", res.Translation)
	assert.Equal(t, []string{"저는", "학생입니다", "나는", "학생이다"}, res.ChangedWords)
}

func TestProcess_StyleIgnoredForNonKoreanTarget(t *testing.T) {
	c := &scriptedCompleter{translation: "I am a student"}
	p := newPipeline(t, c, nil, 0)
	store := history.NewStore()

	res, err := p.Process(context.Background(), store, Input{
		Text: "저는 학생이에요", Source: "한국어", Target: "영어", Style: "not-even-a-style",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"translate"}, c.calls)
	assert.Empty(t, res.AppliedStyle)
	assert.False(t, store.List(history.Filter{})[0].HasStyle())
	// Without a style, learning info compares input and output.
	assert.Equal(t, []string{"I", "am", "a", "student", "저는", "학생이에요"}, res.ChangedWords)
}

func TestProcess_Image(t *testing.T) {
	c := &scriptedCompleter{translation: "Today's menu"}
	ex := &fakeExtractor{text: "오늘의 메뉴"}
	p := newPipeline(t, c, ex, 0)
	store := history.NewStore()

	res, err := p.Process(context.Background(), store, Input{
		Image: []byte("png"), Source: "Korean", Target: "English",
	})
	require.NoError(t, err)
	assert.Equal(t, "오늘의 메뉴", res.ExtractedText)
	assert.Equal(t, "Today's menu", res.Output)
	assert.Equal(t, "오늘의 메뉴", store.List(history.Filter{})[0].InputText)
}

func TestProcess_NoTextFound(t *testing.T) {
	c := &scriptedCompleter{translation: "x"}
	p := newPipeline(t, c, &fakeExtractor{text: "  "}, 0)
	store := history.NewStore()

	res, err := p.Process(context.Background(), store, Input{
		Image: []byte("png"), Source: "Korean", Target: "English",
	})
	require.NoError(t, err)
	assert.True(t, res.NoTextFound)
	assert.Empty(t, c.calls)
	assert.Zero(t, store.Len())
}

func TestProcess_FailuresLeaveHistoryUntouched(t *testing.T) {
	tests := []struct {
		name      string
		completer *scriptedCompleter
		extractor *fakeExtractor
		in        Input
		maxTokens int
		kind      apperr.Kind
		code      apperr.Code
	}{
		{
			name:      "unsupported language",
			completer: &scriptedCompleter{},
			in:        Input{Text: "hi", Source: "Klingon", Target: "Korean"},
			code:      apperr.CodeUnsupportedLanguage,
		},
		{
			name:      "unsupported pair is rejected before extraction",
			completer: &scriptedCompleter{},
			extractor: &fakeExtractor{text: "hello"},
			in:        Input{Image: []byte("png"), Source: "English", Target: "Japanese"},
			code:      apperr.CodeUnsupportedLanguagePair,
		},
		{
			name:      "unknown style for Korean target",
			completer: &scriptedCompleter{},
			in:        Input{Text: "hi", Source: "English", Target: "Korean", Style: "Poetic"},
			code:      apperr.CodeUnsupportedStyle,
		},
		{
			name:      "empty text",
			completer: &scriptedCompleter{},
			in:        Input{Text: " ", Source: "English", Target: "Korean"},
			code:      apperr.CodeInvalidInput,
		},
		{
			name:      "auto target",
			completer: &scriptedCompleter{},
			in:        Input{Text: "hi", Source: "English", Target: "auto"},
			code:      apperr.CodeInvalidInput,
		},
		{
			name:      "too large",
			completer: &scriptedCompleter{},
			in:        Input{Text: strings.Repeat("가", 11), Source: "Korean", Target: "English"},
			maxTokens: 10,
			code:      apperr.CodeInputTooLarge,
		},
		{
			name:      "image decode failure",
			completer: &scriptedCompleter{},
			extractor: &fakeExtractor{err: apperr.NewImageDecodeError(errors.New("bad"))},
			in:        Input{Image: []byte("x"), Source: "Korean", Target: "English"},
			code:      apperr.CodeImageDecodeFailed,
		},
		{
			name:      "style backend failure after translation",
			completer: &scriptedCompleter{translation: "안녕", styleErr: apperr.NewCompletionFailedError(errors.New("boom"))},
			in:        Input{Text: "hello", Source: "English", Target: "Korean", Style: "Hanja"},
			code:      apperr.CodeCompletionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ex Extractor
			if tt.extractor != nil {
				ex = tt.extractor
			}
			p := newPipeline(t, tt.completer, ex, tt.maxTokens)
			store := history.NewStore()

			_, err := p.Process(context.Background(), store, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
			assert.Zero(t, store.Len())
			if tt.code == apperr.CodeUnsupportedLanguagePair {
				assert.Zero(t, tt.extractor.calls)
			}
		})
	}
}
