package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/duocdien/pkg/ingest"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/prompts"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// Question types.
const (
	TypeDrugToAttribute = "drug_to_attribute"
	TypeAttributeToDrug = "attribute_to_drug"
)

// Question is one benchmark item. Entities in Question are kept in [brackets].
type Question struct {
	Question     string `json:"question"`
	QuestionType string `json:"question_type,omitempty"`
	Relation     string `json:"relation,omitempty"`
	Header       string `json:"header,omitempty"`
	Tail         string `json:"tail,omitempty"`
	Answer       string `json:"answer"`
}

var drugToAttributeTemplates = map[string]string{
	RelLatinName:       "Tên Latin của hoạt chất [%s] là gì?",
	RelFormula:         "Công thức hóa học của [%s] được viết như thế nào?",
	RelDescription:     "Mô tả chung về hoạt chất [%s]?",
	RelProperties:      "Tính chất vật lý và hóa học của [%s] như thế nào?",
	RelIdentification:  "Các phương pháp định tính của [%s] là gì?",
	RelAssay:           "Cách tiến hành định lượng cho [%s]?",
	RelStorage:         "Yêu cầu bảo quản đối với hoạt chất [%s] như thế nào?",
	RelDrugClass:       "Hoạt chất [%s] thuộc nhóm hoặc loại thuốc nào?",
	RelRequiredContent: "Hàm lượng yêu cầu của chế phẩm [%s] là bao nhiêu?",
	RelImpurities:      "Tiêu chuẩn về tạp chất và độ tinh khiết của [%s]?",
	RelDissolution:     "Độ hòa tan của [%s] trong các dung môi?",
}

var attributeToDrugTemplates = map[string]string{
	RelLatinName:   "Hoạt chất nào có tên Latin là [%s]?",
	RelFormula:     "Chất nào được xác định bởi công thức hóa học [%s]?",
	RelDrugClass:   "Kể tên một loại thuốc thuộc nhóm [%s]?",
	RelStorage:     "Hoạt chất nào yêu cầu điều kiện bảo quản là [%s]?",
	RelProperties:  "Dựa vào tính chất [%s], đây là hoạt chất gì?",
	RelDissolution: "Chất nào có đặc tính hòa tan là [%s]?",
}

const attributeToDrugFallback = "Thông tin [%s] thuộc về hoạt chất nào?"

type relationPair struct{ first, second string }

var twoHopTemplates = map[relationPair]string{
	{RelFormula, RelStorage}:           "Hoạt chất có công thức hóa học là [%s] yêu cầu điều kiện bảo quản như thế nào?",
	{RelLatinName, RelDrugClass}:       "Thuốc có tên Latin [%s] thuộc nhóm dược lý nào?",
	{RelFormula, RelAssay}:             "Phương pháp định lượng dành cho dược chất có công thức [%s] là gì?",
	{RelLatinName, RelProperties}:      "Mô tả các tính chất vật lý của hoạt chất có tên Latin là [%s]?",
	{RelFormula, RelDrugClass}:         "Dược chất mang công thức [%s] được phân vào loại thuốc nào?",
	{RelLatinName, RelDissolution}:     "Độ hòa tan của hoạt chất có tên Latin [%s] được quy định như thế nào?",
	{RelProperties, RelIdentification}: "Với dược chất có tính chất [%s], quy trình định tính cụ thể là gì?",
	{RelDescription, RelStorage}:       "Dựa trên mô tả [%s], thuốc này cần được bảo quản ra sao?",
	{RelDrugClass, RelFormula}:         "Loại thuốc [%s] thường có hoạt chất với công thức hóa học là gì?",
}

// DrugToAttributeQuestion drafts the question asking for t's value.
func DrugToAttributeQuestion(t Triple) (string, error) {
	tmpl, ok := drugToAttributeTemplates[t.Relation]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTemplate, t.Relation)
	}
	return fmt.Sprintf(tmpl, t.Header), nil
}

// AttributeToDrugQuestion drafts the reverse question, asking which drug has t's value.
func AttributeToDrugQuestion(t Triple) string {
	tmpl, ok := attributeToDrugTemplates[t.Relation]
	if !ok {
		tmpl = attributeToDrugFallback
	}
	return fmt.Sprintf(tmpl, t.Tail)
}

// Pair links two facts about the same drug.
type Pair struct {
	Header    string `json:"header"`
	Relation1 string `json:"relation_1"`
	Tail1     string `json:"tail_1"`
	Relation2 string `json:"relation_2"`
	Tail2     string `json:"tail_2"`
}

// Type is the 2-hop question type, "rel1_to_rel2".
func (p Pair) Type() string { return p.Relation1 + "_to_" + p.Relation2 }

// TwoHopQuestion drafts the question that goes from the first fact to the second.
func TwoHopQuestion(p Pair) (string, error) {
	tmpl, ok := twoHopTemplates[relationPair{p.Relation1, p.Relation2}]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTemplate, p.Type())
	}
	return fmt.Sprintf(tmpl, p.Tail1), nil
}

// Pairs groups triples by drug and returns both orderings of every pair of
// facts. Drugs keep first-seen order.
func Pairs(triples []Triple) []Pair {
	var order []string
	byHeader := make(map[string][]Triple)
	for _, t := range triples {
		if _, ok := byHeader[t.Header]; !ok {
			order = append(order, t.Header)
		}
		byHeader[t.Header] = append(byHeader[t.Header], t)
	}

	var out []Pair
	for _, h := range order {
		group := byHeader[h]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				out = append(out,
					Pair{Header: h, Relation1: a.Relation, Tail1: a.Tail, Relation2: b.Relation, Tail2: b.Tail},
					Pair{Header: h, Relation1: b.Relation, Tail1: b.Tail, Relation2: a.Relation, Tail2: a.Tail},
				)
			}
		}
	}
	return out
}

// QuestionGenerator drafts template questions and has a language model
// rephrase them. Items the model cannot rephrase are dropped.
type QuestionGenerator struct {
	client      nlp.Client
	prompts     *prompts.Library
	concurrency int
	logger      *slog.Logger
}

// GeneratorOption configures a QuestionGenerator.
type GeneratorOption func(*QuestionGenerator)

// WithConcurrency sets how many rephrase requests run at once.
func WithConcurrency(n int) GeneratorOption {
	return func(g *QuestionGenerator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *QuestionGenerator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewQuestionGenerator returns a generator that runs 10 rephrase requests at a time.
func NewQuestionGenerator(client nlp.Client, opts ...GeneratorOption) *QuestionGenerator {
	g := &QuestionGenerator{
		client:      client,
		prompts:     prompts.NewLibrary(),
		concurrency: 10,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type draft struct {
	item   Question
	prompt prompts.PromptVersion
	vars   map[string]interface{}
}

// OneHop generates drug→attribute questions followed by attribute→drug
// questions. An attribute→drug answer is the drug name.
func (g *QuestionGenerator) OneHop(ctx context.Context, triples []Triple) ([]Question, error) {
	var forward, reverse []draft
	for _, t := range triples {
		if ingest.IsMissing(t.Answer) {
			continue
		}
		if q, err := DrugToAttributeQuestion(t); err == nil {
			forward = append(forward, draft{
				item:   Question{Question: q, QuestionType: TypeDrugToAttribute, Relation: t.Relation, Header: t.Header, Tail: t.Tail, Answer: t.Answer},
				prompt: g.prompts.DrugToAttribute(),
				vars:   map[string]interface{}{"question": q, "header": t.Header},
			})
		}
		if t.Tail == "" {
			continue
		}
		q := AttributeToDrugQuestion(t)
		reverse = append(reverse, draft{
			item:   Question{Question: q, QuestionType: TypeAttributeToDrug, Relation: t.Relation, Header: t.Header, Tail: t.Tail, Answer: t.Header},
			prompt: g.prompts.AttributeToDrug(),
			vars:   map[string]interface{}{"question": q},
		})
	}

	out, err := g.rephraseAll(ctx, "drug_to_attribute", forward)
	if err != nil {
		return nil, err
	}
	rev, err := g.rephraseAll(ctx, "attribute_to_drug", reverse)
	if err != nil {
		return nil, err
	}
	return append(out, rev...), nil
}

// TwoHop generates questions over ordered fact pairs that have a template.
// The answer is the second fact's value.
func (g *QuestionGenerator) TwoHop(ctx context.Context, triples []Triple) ([]Question, error) {
	var drafts []draft
	for _, p := range Pairs(triples) {
		if ingest.IsMissing(p.Tail2) {
			continue
		}
		q, err := TwoHopQuestion(p)
		if err != nil {
			continue
		}
		drafts = append(drafts, draft{
			item:   Question{Question: q, QuestionType: p.Type(), Header: p.Header, Tail: p.Tail1, Answer: p.Tail2},
			prompt: g.prompts.TwoHop(),
			vars:   map[string]interface{}{"question": q},
		})
	}
	return g.rephraseAll(ctx, "two_hop", drafts)
}

func (g *QuestionGenerator) rephraseAll(ctx context.Context, stage string, drafts []draft) ([]Question, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	pool := utils.NewWorkerPool(g.concurrency, g.rephrase)
	results, errs := pool.ProcessItems(ctx, drafts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Question, 0, len(results))
	dropped := 0
	for i, q := range results {
		if errs[i] != nil {
			dropped++
			g.logger.Debug("question dropped",
				"stage", stage,
				"draft", drafts[i].item.Question,
				"kind", nlp.Kind(errs[i]),
				"error", errs[i])
			continue
		}
		out = append(out, q)
	}
	g.logger.Info("questions generated", "stage", stage, "kept", len(out), "dropped", dropped)
	return out, nil
}

func (g *QuestionGenerator) rephrase(ctx context.Context, d draft) (Question, error) {
	d.vars["logger"] = g.logger
	msgs, err := d.prompt.Call(d.vars)
	if err != nil {
		return Question{}, err
	}
	resp, err := g.client.Chat(ctx, msgs)
	if err != nil {
		return Question{}, err
	}
	q, err := ParseRephrase(resp.Content)
	if err != nil {
		return Question{}, err
	}
	d.item.Question = q
	return d.item, nil
}

// ParseRephrase reads the {"question": ...} reply of a rephrase prompt.
func ParseRephrase(reply string) (string, error) {
	var out prompts.RephrasedQuestion
	if err := nlp.DecodeJSON(reply, &out); err != nil {
		return "", errors.Join(ErrMalformedLLMOutput, err)
	}
	q := strings.TrimSpace(out.Question)
	if q == "" || q == "NULL" {
		return "", fmt.Errorf("%w: no question", ErrMalformedLLMOutput)
	}
	return q, nil
}
