package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/quizhive/quizhive/internal/cache"
)

type PDFProvider struct{}

func NewProvider() *PDFProvider {
	return &PDFProvider{}
}

// GenerateAttemptReport renders one cached attempt as a printable report.
func (p *PDFProvider) GenerateAttemptReport(ctx context.Context, snap cache.AttemptSnapshot, userEmail string) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Quiz attempt report", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Quiz: "+snap.QuizTitle, props.Text{Top: 0}),
			text.New("User: "+userEmail, props.Text{Top: 5}),
			text.New("Submitted: "+snap.SubmittedAt.Format("2006-01-02 15:04 MST"), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Score: %d / %d", snap.RightCount, snap.TotalCount), props.Text{
				Size:  14,
				Style: fontstyle.Bold,
			}),
			text.New(fmt.Sprintf("Rating: %.2f", snap.Score), props.Text{Top: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Question", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Answer", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Result", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range snap.Items {
		outcome := "wrong"
		if item.Right {
			outcome = "right"
		}
		m.AddRow(12,
			text.NewCol(8, item.Prompt, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("#%d", item.GivenIndex+1), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, outcome, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
