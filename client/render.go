package client

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"civicreport/models"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const (
	emptyGallery     = "No reports yet. Upload one!"
	emptyLeaderboard = "No data yet."
)

// RenderGallery writes one card per report.
func RenderGallery(w io.Writer, reports []models.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, emptyGallery)
		return
	}
	for _, r := range reports {
		created := r.CreatedAt.In(time.Local)
		fmt.Fprintf(w, "#%d %s [%s]\n", r.ID, r.Title, r.Severity)
		fmt.Fprintf(w, "    %s (%s) by %s, %s\n", created.Format("2006-01-02 15:04:05"), humanize.Time(created), r.Email, r.Status)
		fmt.Fprintf(w, "    %s\n", r.Description)
		if r.Img != "" {
			fmt.Fprintf(w, "    image: %s\n", humanize.Bytes(uint64(len(r.Img))))
		}
	}
}

// RenderLeaderboard writes a 1-indexed ranking table.
func RenderLeaderboard(w io.Writer, entries []models.LeaderboardEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Email", "Reports"})
	if len(entries) == 0 {
		table.Append([]string{"", emptyLeaderboard, ""})
	}
	for i, e := range entries {
		table.Append([]string{"#" + strconv.Itoa(i+1), e.Email, strconv.Itoa(e.Count)})
	}
	table.Render()
}

// RenderDashboard writes the four KPI values.
func RenderDashboard(w io.Writer, k *models.KPIs) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Total", "Open", "Severe", "Users"})
	table.Append([]string{
		strconv.Itoa(k.Total),
		strconv.Itoa(k.Open),
		strconv.Itoa(k.Severe),
		strconv.Itoa(k.Users),
	})
	table.Render()
}
