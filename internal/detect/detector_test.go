package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koconnect/koconnect/internal/domain"
)

func TestDetect(t *testing.T) {
	d := New([]domain.Language{domain.Korean, domain.English, domain.Japanese, domain.Vietnamese})

	tests := []struct {
		text string
		want domain.Language
	}{
		{"오늘은 날씨가 정말 좋아서 공원에 산책을 갔습니다.", domain.Korean},
		{"The weather was lovely today so we went for a walk.", domain.English},
		{"今日はとても天気が良かったので、公園を散歩しました。", domain.Japanese},
		{"Hôm nay trời rất đẹp nên chúng tôi đi dạo trong công viên.", domain.Vietnamese},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			got, ok := d.Detect(tt.text)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Empty(t *testing.T) {
	d := New([]domain.Language{domain.Korean, domain.English})
	_, ok := d.Detect("   ")
	assert.False(t, ok)
}

func TestNew_TooFewLanguages(t *testing.T) {
	assert.Nil(t, New([]domain.Language{domain.Korean}))
	assert.Nil(t, New([]domain.Language{domain.Korean, "Klingon"}))

	var d *Detector
	_, ok := d.Detect("안녕하세요")
	assert.False(t, ok)
}
