package service

import (
	"reflect"
	"testing"

	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/rs/zerolog"
)

func TestFromRequestNormalizes(t *testing.T) {
	s := NewQuestionService(nil, composition.NewAliasResolver([]string{"BAMF", "bamf-lid"}), nil, zerolog.Nop())

	req := &model.QuestionRequest{
		Provider: " bamf-lid ",
		Level:    "B1 ",
		Tags:     []string{" politik", "politik", "", "geschichte"},
		QType:    string(model.QuestionTypeMultipleChoice),
		Prompt:   "  Wer wählt den Bundestag? ",
		Options:  []model.Option{{Key: "a", Text: "Das Volk", Correct: true}, {Key: "b", Text: "Der Bundesrat"}},
		MatchPairs: []model.MatchPair{
			{Left: "ignored", Right: "for mcq"},
		},
	}

	q := s.fromRequest(req)

	if q.Status != model.QuestionStatusDraft {
		t.Errorf("status = %q, want draft", q.Status)
	}
	if q.Provider != "BAMF" {
		t.Errorf("provider = %q, want canonical BAMF", q.Provider)
	}
	if q.Level != "B1" || q.Prompt != "Wer wählt den Bundestag?" {
		t.Errorf("level %q prompt %q not trimmed", q.Level, q.Prompt)
	}
	if !reflect.DeepEqual(q.Tags, []string{"politik", "geschichte"}) {
		t.Errorf("tags = %v", q.Tags)
	}
	if len(q.Options) != 2 || q.MatchPairs != nil {
		t.Errorf("mcq payload: options %v pairs %v", q.Options, q.MatchPairs)
	}
}

func TestFromRequestKeepsUnknownProviderAndEmptyTags(t *testing.T) {
	s := NewQuestionService(nil, composition.NewAliasResolver(), nil, zerolog.Nop())

	q := s.fromRequest(&model.QuestionRequest{
		Status:     string(model.QuestionStatusPublished),
		Provider:   " Volkshochschule ",
		QType:      string(model.QuestionTypeMatch),
		Prompt:     "Ordnen Sie zu",
		MatchPairs: []model.MatchPair{{Left: "Berlin", Right: "Hauptstadt"}, {Left: "Bonn", Right: "Bundesstadt"}},
	})

	if q.Status != model.QuestionStatusPublished || q.Provider != "Volkshochschule" {
		t.Errorf("status %q provider %q", q.Status, q.Provider)
	}
	if q.Tags == nil || len(q.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil slice", q.Tags)
	}
	if len(q.MatchPairs) != 2 || q.Options != nil {
		t.Errorf("match payload: options %v pairs %v", q.Options, q.MatchPairs)
	}
}
