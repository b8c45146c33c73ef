package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	docs "google.golang.org/api/docs/v1"
)

func textRun(s string) *docs.StructuralElement {
	return &docs.StructuralElement{
		Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{{TextRun: &docs.TextRun{Content: s}}},
		},
	}
}

func TestFlattenElements(t *testing.T) {
	t.Parallel()

	elements := []*docs.StructuralElement{
		textRun("Senior Platform Engineer\n"),
		textRun("10 years of infrastructure experience.\n"),
		{
			Table: &docs.Table{
				TableRows: []*docs.TableRow{
					{
						TableCells: []*docs.TableCell{
							{Content: []*docs.StructuralElement{textRun("Go\n")}},
							{Content: []*docs.StructuralElement{textRun("8 years\n")}},
						},
					},
					{
						TableCells: []*docs.TableCell{
							{Content: []*docs.StructuralElement{textRun("Kubernetes\n")}},
							{Content: []*docs.StructuralElement{textRun("6 years\n")}},
						},
					},
				},
			},
		},
	}

	got := flattenElements(elements)
	want := "Senior Platform Engineer\n" +
		"10 years of infrastructure experience.\n" +
		"Go\t8 years\n" +
		"Kubernetes\t6 years\n"
	assert.Equal(t, want, got)
}

func TestFlattenElementsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, flattenElements(nil))
	assert.Empty(t, flattenElements([]*docs.StructuralElement{{}}))
}
