package conversation

import (
	"fmt"

	"jalrakshak-ai-api/internal/application/chatadapter"
)

var guidance = map[chatadapter.ErrorKind]string{
	chatadapter.KindInvalidInput: "Please try again with a different image.",
	chatadapter.KindNetwork:      "Please check your internet connection and try again.",
	chatadapter.KindAPIError:     "Please try again in a moment. If the problem persists, the service may be temporarily unavailable.",
	chatadapter.KindMalformed:    "The service returned an unexpected reply. Please try again, or try a different image or question.",
}

const fallbackGuidance = "Please try again, and if the problem persists, check your internet connection or try with a different image/question."

// FailureText 将失败结果渲染为助手回合文本，message 原样保留
func FailureText(f *chatadapter.Failure) string {
	g, ok := guidance[f.Kind]
	if !ok {
		g = fallbackGuidance
	}
	return fmt.Sprintf("I apologize, but I encountered an error: %s. %s", f.Message, g)
}

// ReplyText 助手回合文本
func ReplyText(out chatadapter.Outcome) string {
	if out.IsSuccess() {
		return out.Text
	}
	return FailureText(out.Failure)
}
