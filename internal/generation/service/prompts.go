package service

import (
	"fmt"
	"strings"

	generationdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/domain"
)

// buildPrompt assembles the instruction for one document. The answer
// key and lesson plan prompts carry the generated worksheet so the
// model stays consistent with it.
func buildPrompt(req generationdomain.Request, kind generationdomain.DocumentKind, worksheetHTML string) string {
	var b strings.Builder

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "general"
	}
	grade := strings.TrimSpace(req.Grade)
	if grade == "" {
		grade = "unspecified"
	}
	questions := req.Options.QuestionCount
	if questions <= 0 {
		questions = 10
	}

	switch kind {
	case generationdomain.DocumentWorksheet:
		fmt.Fprintf(&b, "Create a printable student worksheet titled %q.\n", req.Title)
		fmt.Fprintf(&b, "Subject: %s. Grade level: %s. Number of questions: %d.\n", subject, grade, questions)
		b.WriteString("Respond with a complete standalone HTML document. Number every question. Do not include answers.\n")
		if req.Options.VisualRichness == generationdomain.VisualHigh {
			b.WriteString("Use rich visual layout: boxes, tables and clear section headings.\n")
		}

	case generationdomain.DocumentLessonPlan:
		fmt.Fprintf(&b, "Write a teacher lesson plan for the worksheet titled %q.\n", req.Title)
		fmt.Fprintf(&b, "Subject: %s. Grade level: %s.\n", subject, grade)
		b.WriteString("Cover objectives, materials, warm-up, guided practice and assessment.\n")
		b.WriteString("Respond with a complete standalone HTML document.\n")
		if worksheetHTML != "" {
			b.WriteString("\nThe worksheet being taught:\n")
			b.WriteString(worksheetHTML)
			b.WriteString("\n")
		}

	case generationdomain.DocumentAnswerKey:
		fmt.Fprintf(&b, "Produce the answer key for the worksheet titled %q.\n", req.Title)
		b.WriteString("Answer every numbered question, in order, with a short explanation where useful.\n")
		b.WriteString("Respond with a complete standalone HTML document.\n")
		if worksheetHTML != "" {
			b.WriteString("\nThe worksheet to answer:\n")
			b.WriteString(worksheetHTML)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// stepMessage is the human-readable progress line for one step.
func stepMessage(kind generationdomain.DocumentKind) string {
	switch kind {
	case generationdomain.DocumentWorksheet:
		return "Generating worksheet"
	case generationdomain.DocumentLessonPlan:
		return "Generating lesson plan"
	case generationdomain.DocumentAnswerKey:
		return "Generating answer key"
	default:
		return "Generating document"
	}
}
