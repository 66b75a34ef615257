package answer

import (
	"fmt"
	"strings"

	"github.com/luminastro/lumina/internal/conversation"
	"github.com/luminastro/lumina/internal/knowledge"
)

// promptVersion identifies the prompt template. The model must echo it back
// in the payload so stale cached responses can be detected.
const promptVersion = "lumina-qa/1"

// buildPrompt assembles the single prompt for one question: numbered context
// chunks, trimmed conversation history, the new question, and the JSON
// contract instruction.
func buildPrompt(chunks []knowledge.Result, history []conversation.Turn, question string) string {
	var b strings.Builder

	b.WriteString("你是一位專業的紫微斗數命理顧問。請僅根據下方報告摘錄回答使用者的問題，")
	b.WriteString("不要編造報告中沒有的內容。\n\n")

	if len(chunks) == 0 {
		b.WriteString("## 報告摘錄\n（無相關摘錄，請以一般性建議回覆並說明報告中沒有對應內容。）\n\n")
	} else {
		b.WriteString("## 報告摘錄\n")
		for i, c := range chunks {
			fmt.Fprintf(&b, "[%d]", i+1)
			if c.Section != "" {
				fmt.Fprintf(&b, " （%s）", c.Section)
			}
			b.WriteString("\n")
			b.WriteString(c.Content)
			b.WriteString("\n\n")
		}
	}

	if len(history) > 0 {
		b.WriteString("## 對話紀錄\n")
		for _, turn := range history {
			switch turn.Role {
			case conversation.RoleUser:
				b.WriteString("使用者：")
			case conversation.RoleAssistant:
				b.WriteString("顧問：")
			}
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## 新問題\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString("## 輸出格式\n")
	b.WriteString("只輸出一個 JSON 物件，不要加任何其他文字：\n")
	fmt.Fprintf(&b, `{"promptVersion":%q,"answer":"你的回答","citations":[引用的摘錄編號],"followUps":["後續問題建議"]}`, promptVersion)
	b.WriteString("\n")
	b.WriteString("citations 必須是上方摘錄的編號；followUps 最多 3 個。\n")

	return b.String()
}
