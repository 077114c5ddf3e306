package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shikkha-content-platform/internal/ai"
)

type fakeVisionModel struct {
	response string
	err      error
	gotCall  bool
	images   int
}

func (f *fakeVisionModel) GenerateVision(ctx context.Context, prompt string, images []ai.ImagePart) (string, error) {
	f.gotCall = true
	f.images = len(images)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func writeTempImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake-image-bytes"), 0o644); err != nil {
		t.Fatalf("writing temp image: %v", err)
	}
	return path
}

func TestExtractQuestionsPairsGroups(t *testing.T) {
	model := &fakeVisionModel{response: `[
		{"stem":"উদ্দীপক","a":"ক প্রশ্ন","b":"খ প্রশ্ন","c":"গ প্রশ্ন","d":"ঘ প্রশ্ন"},
		{"stem":"Stimulus","a":"Part a","b":"Part b","c":"Part c","d":"Part d"}
	]`}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "page1.jpg")
	sets, err := svc.ExtractQuestions(context.Background(), []string{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	if sets[0].Original.Stem != "উদ্দীপক" {
		t.Errorf("original stem = %q", sets[0].Original.Stem)
	}
	if sets[0].Translated.A != "Part a" {
		t.Errorf("translated part a = %q", sets[0].Translated.A)
	}
	if model.images != 1 {
		t.Errorf("model received %d images, want 1", model.images)
	}
}

func TestExtractQuestionsOddGroupCount(t *testing.T) {
	model := &fakeVisionModel{response: `[
		{"stem":"s1","a":"","b":"","c":"","d":""},
		{"stem":"s2","a":"","b":"","c":"","d":""},
		{"stem":"s3","a":"","b":"","c":"","d":""}
	]`}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "page.jpg")
	_, err := svc.ExtractQuestions(context.Background(), []string{img})
	if !errors.Is(err, ErrInvalidResponseFormat) {
		t.Fatalf("got %v, want ErrInvalidResponseFormat", err)
	}
}

func TestExtractQuestionsNonArray(t *testing.T) {
	model := &fakeVisionModel{response: `{"stem":"s","a":"","b":"","c":"","d":""}`}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "page.jpg")
	_, err := svc.ExtractQuestions(context.Background(), []string{img})
	if !errors.Is(err, ErrInvalidResponseFormat) {
		t.Fatalf("got %v, want ErrInvalidResponseFormat", err)
	}
}

func TestExtractQuestionsUnparseableDegradesToEmpty(t *testing.T) {
	model := &fakeVisionModel{response: "I could not read the pages, the photo is too blurry."}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "page.jpg")
	sets, err := svc.ExtractQuestions(context.Background(), []string{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("got %d sets, want 0", len(sets))
	}
}

func TestExtractQuestionsModelFailure(t *testing.T) {
	model := &fakeVisionModel{err: errors.New("circuit breaker open")}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "page.jpg")
	_, err := svc.ExtractQuestions(context.Background(), []string{img})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
}

func TestExtractQuestionsCleansUpFiles(t *testing.T) {
	cases := []struct {
		name  string
		model *fakeVisionModel
	}{
		{"success", &fakeVisionModel{response: `[]`}},
		{"model failure", &fakeVisionModel{err: errors.New("boom")}},
		{"bad response", &fakeVisionModel{response: `{"not":"an array"}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewExtractionService(tc.model, time.Minute)
			img := writeTempImage(t, "page.jpg")

			svc.ExtractQuestions(context.Background(), []string{img})

			if _, err := os.Stat(img); !os.IsNotExist(err) {
				t.Errorf("temp image still present after extraction")
			}
		})
	}
}

func TestExtractQuestionsLatexRecovered(t *testing.T) {
	// Single-backslash LaTeX inside otherwise valid JSON must survive repair.
	model := &fakeVisionModel{response: "```json\n" + `[
		{"stem":"A force of $4 \times 10^{-5}$ N acts on a charge.","a":"Define flux.","b":"","c":"","d":""},
		{"stem":"stem-bn","a":"","b":"","c":"","d":""}
	]` + "\n```"}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "page.jpg")
	sets, err := svc.ExtractQuestions(context.Background(), []string{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	if sets[0].Original.Stem != `A force of $4 \times 10^{-5}$ N acts on a charge.` {
		t.Errorf("stem = %q, want LaTeX preserved", sets[0].Original.Stem)
	}
}

func TestExtractAnswers(t *testing.T) {
	model := &fakeVisionModel{response: `[
		{"aAnswer":"Flux is...","bAnswer":"B","cAnswer":"C","dAnswer":"D"},
		{"aAnswer":"ফ্লাক্স হল...","bAnswer":"খ","cAnswer":"গ","dAnswer":"ঘ"}
	]`}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "answers.jpg")
	answers, err := svc.ExtractAnswers(context.Background(), []string{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answers.English.AAnswer != "Flux is..." {
		t.Errorf("english a = %q", answers.English.AAnswer)
	}
	if answers.Bangla.DAnswer != "ঘ" {
		t.Errorf("bangla d = %q", answers.Bangla.DAnswer)
	}
}

func TestExtractAnswersWrongArity(t *testing.T) {
	model := &fakeVisionModel{response: `[{"aAnswer":"only one","bAnswer":"","cAnswer":"","dAnswer":""}]`}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "answers.jpg")
	_, err := svc.ExtractAnswers(context.Background(), []string{img})
	if !errors.Is(err, ErrInvalidResponseFormat) {
		t.Fatalf("got %v, want ErrInvalidResponseFormat", err)
	}
}

func TestExtractAnswersUnparseableDegrades(t *testing.T) {
	model := &fakeVisionModel{response: "no answers visible"}
	svc := NewExtractionService(model, time.Minute)

	img := writeTempImage(t, "answers.jpg")
	answers, err := svc.ExtractAnswers(context.Background(), []string{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answers.English.AAnswer != "" || answers.Bangla.AAnswer != "" {
		t.Errorf("expected empty answer sets, got %+v", answers)
	}
}
