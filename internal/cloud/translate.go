package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
)

// TranslateClient adapts Amazon Translate to the pipeline's translation
// capability.
type TranslateClient struct {
	client *translate.Client
}

func NewTranslateClient(client *translate.Client) *TranslateClient {
	return &TranslateClient{client: client}
}

func (t *TranslateClient) Translate(
	ctx context.Context,
	text string,
	sourceLang string,
	targetLang string,
) (string, error) {
	out, err := t.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(sourceLang),
		TargetLanguageCode: aws.String(targetLang),
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate text: %w", err)
	}
	return aws.ToString(out.TranslatedText), nil
}
