package prompts

import (
	"fmt"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/types"
)

// RephrasedQuestion is the JSON shape every rephrase prompt asks for.
type RephrasedQuestion struct {
	Question string `json:"question"`
}

// drugToAttributePrompt turns a templated drug→attribute question into a natural one.
func drugToAttributePrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}
	header := optionalString(context, "header", "ASPIRIN")

	userPrompt := fmt.Sprintf(`Imagine you are a pharmacist or a drug quality control expert.
Based on the provided technical question [%s], create a natural, human-like question in Vietnamese that a colleague would ask.
Return the question in JSON format, preserving the brackets [] around the entity.
If the answer is "Không có thông tin", return {"question": ""}.
Example: {"question": "Bạn có thể cho biết công thức hóa học của hoạt chất [%s] không?"}`, question, header)

	logPrompts(context, "", userPrompt)
	return []types.Message{nlp.NewUserMessage(userPrompt)}, nil
}

// attributeToDrugPrompt asks for a question whose answer is a drug name.
func attributeToDrugPrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(`Imagine you are a chemistry professor testing a student.
Create a natural question in Vietnamese based on the fact: [%s].
The answer to the question should be the name of a drug/chemical.
Requirements:
- Keep the bracket [] for the entity.
- If the content in [] is too long, summarize it within the brackets.
- Return JSON: {"question": "..."}`, question)

	logPrompts(context, "", userPrompt)
	return []types.Message{nlp.NewUserMessage(userPrompt)}, nil
}

// twoHopPrompt rephrases a draft that chains two attributes of the same drug.
func twoHopPrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(`Bạn là một chuyên gia về dược phẩm và kiểm nghiệm thuốc.
Hãy tạo một câu hỏi tiếng Việt tự nhiên, chuyên sâu dựa trên bản thảo thô sau: [%s].

Trả về định dạng JSON: {"question": ""}.

Yêu cầu bắt buộc:
- Phải trả lời bằng TIẾNG VIỆT.
- Giữ nguyên dấu ngoặc [] cho nội dung thực thể (entity).
- Nếu nội dung trong [] quá dài hoặc là một danh sách, hãy tóm tắt lại thành vài ý chính.
- Câu hỏi phải là một câu văn hoàn chỉnh, trôi chảy và mang tính chuyên môn.
- Độ dài câu hỏi phải ít hơn 30 từ.
- Nếu bản thảo thô không có thông tin cụ thể, trả về JSON rỗng {}.`, question)

	logPrompts(context, "", userPrompt)
	return []types.Message{nlp.NewUserMessage(userPrompt)}, nil
}
