package prompts

import (
	"fmt"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/types"
)

// InsufficientInformation is the fixed reply when no data backs an answer.
const InsufficientInformation = "Xin lỗi, tôi chưa có thông tin về vấn đề này trong hệ thống."

// answerPrompt asks for an answer grounded in the graph neighbourhood of the resolved entity.
func answerPrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}
	entity, err := requireString(context, "entity")
	if err != nil {
		return nil, err
	}
	graphContext, err := ToPromptJSON(context["context"], false, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph context: %w", err)
	}

	sysPrompt := "Bạn là bác sĩ AI. Chỉ sử dụng dữ liệu được cung cấp và trả lời bằng tiếng Việt."
	userPrompt := fmt.Sprintf(`Người dùng đang hỏi về: "%s"
Hệ thống tìm kiếm đã xác định thực thể liên quan nhất là: "%s"

Dữ liệu chi tiết từ Knowledge Graph:
%s

Hãy trả lời câu hỏi dựa trên dữ liệu trên. Nếu dữ liệu không đủ, hãy nói rõ.`, question, entity, graphContext)

	logPrompts(context, sysPrompt, userPrompt)
	return []types.Message{
		nlp.NewSystemMessage(sysPrompt),
		nlp.NewUserMessage(userPrompt),
	}, nil
}

// rowsAnswerPrompt turns Cypher result rows into a conversational answer.
func rowsAnswerPrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}
	rows, err := ToPromptJSON(context["rows"], false, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rows: %w", err)
	}

	sysPrompt := "Bạn là Bác sĩ ảo của hệ thống tra cứu Dược điển Việt Nam."
	userPrompt := fmt.Sprintf(`Dữ liệu từ Database y khoa: %s
Câu hỏi người dùng: "%s"

Hãy đóng vai Bác sĩ ảo, trả lời người dùng một cách tự nhiên, chi tiết và thân thiện bằng tiếng Việt.
- Nếu dữ liệu rỗng (empty), hãy nói "%s"
- Đừng chỉ liệt kê, hãy viết thành câu văn mạch lạc.`, rows, question, InsufficientInformation)

	logPrompts(context, sysPrompt, userPrompt)
	return []types.Message{
		nlp.NewSystemMessage(sysPrompt),
		nlp.NewUserMessage(userPrompt),
	}, nil
}

// zeroShotPrompt is the baseline: the model answers from its own knowledge.
func zeroShotPrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(`Bạn là một dược sĩ lâm sàng và chuyên gia về Dược điển Việt Nam.
Hãy trả lời câu hỏi sau một cách chính xác, ngắn gọn và dựa trên kiến thức chuyên môn y dược.

- Trả lời thẳng vào vấn đề.
- Giữ độ chính xác cao về tên thuốc và công thức hóa học.

Câu hỏi: %s`, question)

	logPrompts(context, "", userPrompt)
	return []types.Message{nlp.NewUserMessage(userPrompt)}, nil
}
