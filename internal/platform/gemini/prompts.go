package gemini

import "strings"

// Analysis prompts by language. Every prompt demands plain prose so the
// result can be embedded in downstream documents without markdown cleanup.
// English is the fallback for unrecognized language codes.
var analysisPrompts = map[string]string{
	"en": "Analyze the following document text. Provide a concise summary of its purpose " +
		"and key points, then list any important names, dates, amounts, and obligations it contains. " +
		"Respond in plain prose without markdown formatting.",
	"zh": "请分析以下文档内容。先简要概括其目的和要点，然后列出其中的重要名称、日期、金额和义务。" +
		"请用纯文本回答，不要使用 Markdown 格式。",
	"ja": "以下の文書の内容を分析してください。まず目的と要点を簡潔にまとめ、次に重要な名前、日付、金額、" +
		"義務事項を挙げてください。マークダウンを使わずプレーンテキストで回答してください。",
}

// summaryPrompt condenses webpage or transcript text.
const summaryPrompt = "Summarize the following content in a few short paragraphs. " +
	"Keep the key facts and conclusions, drop navigation text and boilerplate. " +
	"Respond in plain prose without markdown formatting."

// visionPrompt asks the model to transcribe a scanned document image.
const visionPrompt = "Extract all readable text from this document image. " +
	"Preserve the reading order. Respond with the extracted text only, " +
	"in plain prose without markdown formatting."

// analysisPrompt returns the analysis instruction for the given language
// code, falling back to English.
func analysisPrompt(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if p, ok := analysisPrompts[lang]; ok {
		return p
	}
	return analysisPrompts["en"]
}
