package report

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lead-tracker-go/internal/model"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testWorkbook(t *testing.T) *Workbook {
	t.Helper()
	return NewWorkbook(filepath.Join(t.TempDir(), "Opportunities.xlsx"), testLogger())
}

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func sampleOpportunity(id, status, lastContacted, notes string) model.Opportunity {
	return model.Opportunity{
		ID:            id,
		ContactName:   "Alice",
		Company:       "Acme",
		Email:         "alice@acme.com",
		Phone:         "",
		Title:         "Opportunity with Alice",
		LeadStatus:    status,
		Notes:         notes,
		LastContacted: lastContacted,
		FolderLink:    "https://onedrive.example.com/Lead-" + id,
	}
}

func TestAppendEmailLogCreatesWorkbook(t *testing.T) {
	w := testWorkbook(t)

	err := w.AppendEmailLog([]EmailLogRow{
		{Received: "2025-03-01T09:00:00Z", From: "alice@acme.com", Subject: "Partnership", IsLead: true},
		{Received: "2025-03-01T10:00:00Z", From: "news@letter.com", Subject: "Newsletter", IsLead: false},
	})
	require.NoError(t, err)

	rows := readRows(t, w.path, SheetEmails)
	require.Len(t, rows, 3)
	assert.Equal(t, emailHeaders, rows[0])
	assert.Equal(t, []string{"2025-03-01T09:00:00Z", "alice@acme.com", "Partnership", "Yes"}, rows[1])
	assert.Equal(t, "No", rows[2][3])

	// All three sheets exist with headers; the default sheet is gone.
	f, err := excelize.OpenFile(w.path)
	require.NoError(t, err)
	defer f.Close()
	sheets := f.GetSheetList()
	assert.ElementsMatch(t, []string{SheetOpportunities, SheetInteractions, SheetEmails}, sheets)
}

func TestAppendEmailLogAccumulatesAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Opportunities.xlsx")

	first := NewWorkbook(path, testLogger())
	require.NoError(t, first.AppendEmailLog([]EmailLogRow{{Received: "t1", From: "a@x.com", Subject: "s1"}}))

	second := NewWorkbook(path, testLogger())
	require.NoError(t, second.AppendEmailLog([]EmailLogRow{{Received: "t2", From: "b@y.com", Subject: "s2"}}))

	rows := readRows(t, path, SheetEmails)
	require.Len(t, rows, 3)
	assert.Equal(t, "s1", rows[1][2])
	assert.Equal(t, "s2", rows[2][2])
}

func TestUpsertInsertsNewOpportunity(t *testing.T) {
	w := testWorkbook(t)

	opp := sampleOpportunity("9d83954d", "New Lead", "2025-03-01T09:00:00Z", "")
	require.NoError(t, w.UpsertOpportunities(map[string]model.Opportunity{opp.ID: opp}))

	rows := readRows(t, w.path, SheetOpportunities)
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "9d83954d", row[0])
	assert.Equal(t, "Alice", row[1])
	assert.Equal(t, "Acme", row[2])
	assert.Equal(t, "alice@acme.com", row[3])
	assert.Equal(t, "Opportunity with Alice", row[5])
	assert.Equal(t, "New Lead", row[6])
	assert.Equal(t, "2025-03-01T09:00:00Z", row[7])

	f, err := excelize.OpenFile(w.path)
	require.NoError(t, err)
	defer f.Close()
	formula, err := f.GetCellFormula(SheetOpportunities, "I2")
	require.NoError(t, err)
	assert.Contains(t, formula, "HYPERLINK")
	assert.Contains(t, formula, opp.FolderLink)
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	w := testWorkbook(t)

	opp := sampleOpportunity("9d83954d", "New Lead", "2025-03-01T09:00:00Z", "")
	require.NoError(t, w.UpsertOpportunities(map[string]model.Opportunity{opp.ID: opp}))

	updated := sampleOpportunity("9d83954d", "Proposal Sent", "2025-03-02T11:00:00Z", "Strong interest.")
	updated.ContactName = "Renamed"               // must not overwrite
	updated.FolderLink = "https://elsewhere.test" // must not overwrite
	require.NoError(t, w.UpsertOpportunities(map[string]model.Opportunity{updated.ID: updated}))

	rows := readRows(t, w.path, SheetOpportunities)
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "Alice", row[1])
	assert.Equal(t, "Proposal Sent", row[6])
	assert.Equal(t, "2025-03-02T11:00:00Z", row[7])
	assert.Equal(t, "Strong interest.", row[9])

	f, err := excelize.OpenFile(w.path)
	require.NoError(t, err)
	defer f.Close()
	formula, err := f.GetCellFormula(SheetOpportunities, "I2")
	require.NoError(t, err)
	assert.Contains(t, formula, "Lead-9d83954d")
	assert.NotContains(t, formula, "elsewhere")
}

func TestUpsertKeepsNotesWhenUpdateHasNone(t *testing.T) {
	w := testWorkbook(t)

	withNotes := sampleOpportunity("9d83954d", "New Lead", "2025-03-01T09:00:00Z", "Existing notes.")
	require.NoError(t, w.UpsertOpportunities(map[string]model.Opportunity{withNotes.ID: withNotes}))

	noNotes := sampleOpportunity("9d83954d", "Proposal Sent", "2025-03-02T11:00:00Z", "")
	require.NoError(t, w.UpsertOpportunities(map[string]model.Opportunity{noNotes.ID: noNotes}))

	rows := readRows(t, w.path, SheetOpportunities)
	assert.Equal(t, "Existing notes.", rows[1][9])
}

func TestUpsertAppendsInDeterministicOrder(t *testing.T) {
	w := testWorkbook(t)

	batch := map[string]model.Opportunity{
		"bbbbbbbb": sampleOpportunity("bbbbbbbb", "New Lead", "t", ""),
		"aaaaaaaa": sampleOpportunity("aaaaaaaa", "New Lead", "t", ""),
	}
	require.NoError(t, w.UpsertOpportunities(batch))

	rows := readRows(t, w.path, SheetOpportunities)
	require.Len(t, rows, 3)
	assert.Equal(t, "aaaaaaaa", rows[1][0])
	assert.Equal(t, "bbbbbbbb", rows[2][0])
}

func TestAppendInteractionLogAndHistory(t *testing.T) {
	w := testWorkbook(t)

	require.NoError(t, w.AppendInteractionLog([]InteractionRow{
		{OpportunityID: "aaaaaaaa", MeetingDate: "2025-03-07", Summary: "Intro call", ActionItems: "Send deck", Deadline: "2025-03-10", MeetingType: "Online", Timestamp: "2025-03-01T09:00:00Z"},
		{OpportunityID: "bbbbbbbb", MeetingDate: "2025-03-08", Summary: "Demo", MeetingType: "N/A", Timestamp: "2025-03-01T10:00:00Z"},
		{OpportunityID: "aaaaaaaa", MeetingDate: "2025-03-09", Summary: "Follow-up", MeetingType: "Online", Timestamp: "2025-03-02T09:00:00Z"},
	}))

	history, err := w.InteractionHistory("aaaaaaaa")
	require.NoError(t, err)
	lines := strings.Split(history, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "On 2025-03-01T09:00:00Z, a meeting was logged: Intro call", lines[0])
	assert.Equal(t, "On 2025-03-02T09:00:00Z, a meeting was logged: Follow-up", lines[1])

	all, err := w.InteractionHistory("")
	require.NoError(t, err)
	assert.Len(t, strings.Split(all, "\n"), 3)
}

func TestInteractionHistoryMissingWorkbook(t *testing.T) {
	w := testWorkbook(t)

	history, err := w.InteractionHistory("aaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "", history)
}

func TestHeadersWrittenOnce(t *testing.T) {
	w := testWorkbook(t)

	require.NoError(t, w.AppendEmailLog([]EmailLogRow{{Received: "t1", From: "a@x.com", Subject: "s1"}}))
	require.NoError(t, w.AppendEmailLog([]EmailLogRow{{Received: "t2", From: "b@y.com", Subject: "s2"}}))

	rows := readRows(t, w.path, SheetEmails)
	require.Len(t, rows, 3)
	assert.Equal(t, "Timestamp", rows[0][0])
	assert.NotEqual(t, "Timestamp", rows[1][0])
}
