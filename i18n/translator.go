package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional values to embed in the message (for example,
// "resource", "id" or "param").
type Translator interface {
	Message(code string, data map[string]string) string
	// FullMessage prefixes the message for code with the attribute label,
	// e.g. ("Age", "not_a_number") -> "Age is not a number".
	FullMessage(attribute, code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "required":
			msg = "を入力してください"
		case "invalid_type":
			msg = "は不正な値です"
		case "invalid_enum":
			msg = "は一覧にありません"
		case "not_a_number":
			msg = "は数値で入力してください"
		case "must_be_blank":
			msg = "は入力しないでください"
		case "uniqueness":
			msg = "はすでに存在します"
		case "reserved":
			msg = "は予約されています"
		case "unknown_key":
			msg = "は未知のキーです"
		case "duplicate_key":
			msg = "キーが重複しています: {key}"
		case "parse_error":
			msg = "JSONの解析に失敗しました"
		case "truncated":
			msg = "リクエストが大きすぎます"
		case "not_found":
			msg = "{resource} が見つかりません ('id'={id})"
		case "param_missing":
			msg = "パラメータがないか空です: {param}"
		case "internal":
			msg = "内部サーバーエラー"
		}
	default: // "en"
		switch code {
		case "required":
			msg = "can't be blank"
		case "invalid_type":
			msg = "is invalid"
		case "invalid_enum":
			msg = "is not included in the list"
		case "not_a_number":
			msg = "is not a number"
		case "must_be_blank":
			msg = "must be blank"
		case "uniqueness":
			msg = "has already been taken"
		case "reserved":
			msg = "is reserved"
		case "unknown_key":
			msg = "is not a permitted attribute"
		case "duplicate_key":
			msg = "duplicate key {key}"
		case "parse_error":
			msg = "malformed JSON body"
		case "truncated":
			msg = "request body too large"
		case "not_found":
			msg = "Couldn't find {resource} with 'id'={id}"
		case "param_missing":
			msg = "param is missing or the value is empty: {param}"
		case "internal":
			msg = "internal server error"
		}
	}
	if msg == "" {
		return code
	}
	return interpolate(msg, data)
}

func (t dictTranslator) FullMessage(attribute, code string, data map[string]string) string {
	msg := t.Message(code, data)
	if attribute == "" {
		return msg
	}
	if t.lang == "ja" {
		return attribute + msg
	}
	return attribute + " " + msg
}

func interpolate(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }

// Full fetches an attribute-prefixed message using the current Translator.
func Full(attribute, code string, data map[string]string) string {
	return currentTranslator.FullMessage(attribute, code, data)
}
