package services

import (
	"strings"

	"shikkha-content-platform/models"
)

// containsBangla reports whether the text carries any Bengali-block runes.
func containsBangla(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r >= 0x0980 && r <= 0x09FF
	})
}

// bilingual assigns the original/translated strings to the En/Bn slots based
// on the script of the original. Extraction emits original-then-translation
// without declaring the language, so the script decides.
func bilingual(original, translated string, originalIsBangla bool) models.BilingualText {
	if originalIsBangla {
		return models.BilingualText{En: translated, Bn: original}
	}
	return models.BilingualText{En: original, Bn: translated}
}

// InputFromExtractedSet turns one extracted original/translated pair into a
// creation input. Part chapter hints are left empty; extraction does not
// classify parts, the resolver fills ids only when hints are supplied later.
func InputFromExtractedSet(set ExtractedQuestionSet, meta models.QuestionMeta, source models.QuestionSource) CreateQuestionInput {
	isBangla := containsBangla(set.Original.Stem)

	part := func(original, translated string) models.QuestionPart {
		return models.QuestionPart{
			Question: bilingual(original, translated, isBangla),
		}
	}

	return CreateQuestionInput{
		Stem: models.QuestionStem{
			Text: bilingual(set.Original.Stem, set.Translated.Stem, isBangla),
		},
		Parts: models.QuestionParts{
			A: part(set.Original.A, set.Translated.A),
			B: part(set.Original.B, set.Translated.B),
			C: part(set.Original.C, set.Translated.C),
			D: part(set.Original.D, set.Translated.D),
		},
		Meta:   meta,
		Source: source,
	}
}

// ApplyExtractedAnswers merges answer extraction output into an existing
// creation input, part by part.
func ApplyExtractedAnswers(input *CreateQuestionInput, answers *ExtractedAnswers) {
	if answers == nil {
		return
	}
	input.Parts.A.Answer = models.BilingualText{En: answers.English.AAnswer, Bn: answers.Bangla.AAnswer}
	input.Parts.B.Answer = models.BilingualText{En: answers.English.BAnswer, Bn: answers.Bangla.BAnswer}
	input.Parts.C.Answer = models.BilingualText{En: answers.English.CAnswer, Bn: answers.Bangla.CAnswer}
	input.Parts.D.Answer = models.BilingualText{En: answers.English.DAnswer, Bn: answers.Bangla.DAnswer}
}
