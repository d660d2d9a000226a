package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	ragmodel "github.com/zhouzirui/news-rag/backend/internal/model/rag"
)

// NoInformationReply is the sentence the model is told to use when the
// passages do not contain the answer.
const NoInformationReply = "Sorry! Currently I don't have the information about that."

const answerTemplate = "Answer the question using the following passages:\n\n{context}\n\n" +
	"Question: {question}\n" +
	"Answer: The answer should not contain any references like \"the provided passage\" and the answer should be well elaborated. " +
	"if you don't know the answer, just say \"" + NoInformationReply + "\"."

func newPromptTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString, schema.UserMessage(answerTemplate))
}

// BuildContext numbers passages (1), (2), ... in the given order and joins
// them with blank lines.
func BuildContext(passages []ragmodel.Passage) string {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = fmt.Sprintf("(%d) %s", i+1, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt renders the final prompt for query over passages.
func (s *Service) BuildPrompt(ctx context.Context, query string, passages []ragmodel.Passage) (string, error) {
	messages, err := s.template.Format(ctx, map[string]any{
		"context":  BuildContext(passages),
		"question": query,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("render prompt: template produced no messages")
	}
	return messages[0].Content, nil
}
