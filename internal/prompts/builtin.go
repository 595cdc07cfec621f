package prompts

import "github.com/koconnect/koconnect/internal/domain"

// System roles sent ahead of every formatted template.
const (
	TranslationSystemRole = "당신은 의미를 정확히 유지하며 자연스럽게 번역하는 전문가입니다."
	StyleSystemRole       = "당신은 의미 왜곡 없이 문체만 조정하는 한국어 문체 전문가입니다."
)

var translationTemplates = map[PairKey]Template{
	{domain.Korean, domain.English}:    "다음 한국어 문장을 영어로 번역하세요: {text}",
	{domain.English, domain.Korean}:    "다음 영어 문장을 한국어로 번역하세요: {text}",
	{domain.Korean, domain.Vietnamese}: "다음 한국어 문장을 베트남어로 번역하세요: {text}",
	{domain.Vietnamese, domain.Korean}: "다음 베트남어 문장을 한국어로 번역하세요: {text}",
	{domain.Korean, domain.Chinese}:    "다음 한국어 문장을 중국어(간체)로 번역하세요: {text}",
	{domain.Chinese, domain.Korean}:    "다음 중국어 문장을 한국어로 번역하세요: {text}",
	{domain.Korean, domain.Japanese}:   "다음 한국어 문장을 일본어로 번역하세요: {text}",
	{domain.Japanese, domain.Korean}:   "다음 일본어 문장을 한국어로 번역하세요: {text}",
}

var styleTemplates = map[domain.Style]Template{
	domain.StyleFormal: "격식을 갖춘 공식 문장체로, 논문이나 보고서에 어울리게 " +
		"다음 문장을 문어체(격식체)로 다시 작성하세요: {text}",
	domain.StyleInformal: "블로그나 채팅에 자연스러운 일상 대화체로 " +
		"다음 문장을 구어체(친근한 말투)로 다시 작성하세요: {text}",
	domain.StyleBasicVocabulary: "어린이나 외국인도 이해하기 쉽도록 " +
		"다음 문장을 기초 단어 위주로 다시 작성하세요: {text}",
	domain.StyleHanja: "한자 기반 어휘를 많이 사용하여 " +
		"다음 문장을 한자어 위주로 다시 작성하세요: {text}",
	domain.StyleNarrative: "사건이나 이야기를 서술하는 서술형 문장으로 " +
		"다음 문장을 서술체로 다시 작성하세요: {text}",
	domain.StyleDescriptive: "대상이나 장면을 상세하게 묘사하는 묘사형 문장으로 " +
		"다음 문장을 묘사체로 다시 작성하세요: {text}",
}

const extractTemplate Template = "이미지({image_url}) 안의 텍스트를 그대로 추출하세요. " +
	"OCR 과정에서 생긴 잡음(깨진 글자, 불필요한 기호, 잘못된 줄바꿈)만 정리하고 " +
	"내용을 바꾸거나 번역하지 마세요. 텍스트가 없으면 아무것도 출력하지 마세요."

// DefaultEntries returns the built-in template rows.
func DefaultEntries() []Entry {
	entries := make([]Entry, 0, len(translationTemplates)+len(styleTemplates)+1)
	for pair, t := range translationTemplates {
		entries = append(entries, Entry{Op: OpTranslate, Key: pair.Key(), Template: t})
	}
	for s, t := range styleTemplates {
		entries = append(entries, Entry{Op: OpStyle, Key: StyleKey(s), Template: t})
	}
	entries = append(entries, Entry{Op: OpExtract, Key: ExtractKey, Template: extractTemplate})
	return entries
}
