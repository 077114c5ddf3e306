package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/models"
)

func chapter(order int, en, bn string, aliases models.NodeAliases) models.Chapter {
	return models.Chapter{
		ID:      primitive.NewObjectID(),
		Name:    models.BilingualText{En: en, Bn: bn},
		Order:   order,
		Aliases: aliases,
	}
}

func physicsChapters() []models.Chapter {
	return []models.Chapter{
		chapter(1, "Physical Quantities", "ভৌত রাশি", models.NodeAliases{}),
		chapter(2, "Vector", "ভেক্টর", models.NodeAliases{Banglish: []string{"bhector"}}),
		chapter(3, "Dynamics", "গতিবিদ্যা", models.NodeAliases{En: []string{"Motion"}}),
	}
}

func TestResolveChapterCaseInsensitiveEnglish(t *testing.T) {
	chapters := physicsChapters()
	got := ResolveChapter("vector", chapters)
	if got == nil {
		t.Fatal("expected a match for lowercase english name")
	}
	if *got != chapters[1].ID {
		t.Errorf("matched %s, want the Vector chapter", got.Hex())
	}
}

func TestResolveChapterBanglaName(t *testing.T) {
	chapters := physicsChapters()
	got := ResolveChapter("ভেক্টর", chapters)
	if got == nil || *got != chapters[1].ID {
		t.Error("expected bangla name to match the Vector chapter")
	}
}

func TestResolveChapterAliases(t *testing.T) {
	chapters := physicsChapters()

	if got := ResolveChapter("motion", chapters); got == nil || *got != chapters[2].ID {
		t.Error("expected english alias to match Dynamics")
	}
	if got := ResolveChapter("BHECTOR", chapters); got == nil || *got != chapters[1].ID {
		t.Error("expected banglish alias to match Vector")
	}
}

func TestResolveChapterNoMatch(t *testing.T) {
	if got := ResolveChapter("Thermodynamics", physicsChapters()); got != nil {
		t.Errorf("expected nil for an unknown chapter, got %s", got.Hex())
	}
	if got := ResolveChapter("   ", physicsChapters()); got != nil {
		t.Error("expected nil for a blank query")
	}
}

func TestResolveChapterDeterministicOnDuplicates(t *testing.T) {
	// Two chapters carrying the same name: the lower (order, id) always wins
	// regardless of input slice order.
	a := chapter(2, "Waves", "", models.NodeAliases{})
	b := chapter(1, "Waves", "", models.NodeAliases{})

	first := ResolveChapter("waves", []models.Chapter{a, b})
	second := ResolveChapter("waves", []models.Chapter{b, a})

	if first == nil || second == nil {
		t.Fatal("expected matches in both orders")
	}
	if *first != b.ID || *second != b.ID {
		t.Error("duplicate names must resolve to the lowest (order, id) chapter")
	}
}

func TestResolveTopic(t *testing.T) {
	topics := []models.Topic{
		{
			ID:    primitive.NewObjectID(),
			Name:  models.BilingualText{En: "Scalar Product", Bn: "স্কেলার গুণফল"},
			Order: 1,
		},
		{
			ID:      primitive.NewObjectID(),
			Name:    models.BilingualText{En: "Vector Product"},
			Order:   2,
			Aliases: models.NodeAliases{En: []string{"Cross Product"}},
		},
	}

	if got := ResolveTopic("cross product", topics); got == nil || *got != topics[1].ID {
		t.Error("expected alias to match Vector Product")
	}
	if got := ResolveTopic("স্কেলার গুণফল", topics); got == nil || *got != topics[0].ID {
		t.Error("expected bangla name to match Scalar Product")
	}
	if got := ResolveTopic("Integration", topics); got != nil {
		t.Error("expected nil for an unknown topic")
	}
}
