package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"lead-tracker-go/internal/model"
)

// Sheet names of the report workbook. The workbook is the system of record:
// it must stay loadable and appendable by this same code across restarts, and
// openable by a human reader at any time.
const (
	SheetOpportunities = "Opportunities Master"
	SheetInteractions  = "Interaction Log"
	SheetEmails        = "All Emails Log"
)

var (
	opportunityHeaders = []string{"Opportunity ID", "Contact Name", "Company", "Email", "Phone", "Opportunity Title", "Lead Status", "Last Contacted", "Folder Link", "Notes"}
	interactionHeaders = []string{"Opportunity ID", "Meeting Date", "Meeting Summary", "Action Items", "Deadlines", "Meeting Type", "Timestamp"}
	emailHeaders       = []string{"Timestamp", "From", "Subject", "Is Lead?"}
)

// EmailLogRow is one append-only entry of the All Emails Log sheet.
type EmailLogRow struct {
	Received string
	From     string
	Subject  string
	IsLead   bool
}

// InteractionRow is one append-only entry of the Interaction Log sheet.
type InteractionRow struct {
	OpportunityID string
	MeetingDate   string
	Summary       string
	ActionItems   string
	Deadline      string
	MeetingType   string
	Timestamp     string
}

// Workbook synchronizes derived records into the on-disk report. Every
// mutation loads the current file (or creates it with headers), applies the
// change plus a cosmetic styling pass, and saves via a temp file renamed into
// place so an unrelated reader never observes a half-written workbook.
type Workbook struct {
	path string
	log  *logrus.Logger
	mu   sync.Mutex
}

// NewWorkbook creates a synchronizer for the workbook at path.
func NewWorkbook(path string, log *logrus.Logger) *Workbook {
	return &Workbook{path: path, log: log}
}

// AppendEmailLog appends one row per ingested message, lead or not.
func (w *Workbook) AppendEmailLog(rows []EmailLogRow) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	for _, row := range rows {
		isLead := "No"
		if row.IsLead {
			isLead = "Yes"
		}
		if err := appendRow(f, SheetEmails, []interface{}{row.Received, row.From, row.Subject, isLead}); err != nil {
			return err
		}
	}

	return w.save(f)
}

// UpsertOpportunities merges opportunity records into the master sheet,
// matching by the identifier in column one. Existing rows update only lead
// status, last contacted, and notes when non-empty; contact fields and the
// folder link are immutable after creation. Unknown identifiers append a full
// new row.
func (w *Workbook) UpsertOpportunities(opportunities map[string]model.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(SheetOpportunities)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SheetOpportunities, err)
	}

	existing := make(map[string]int) // opportunity id -> 1-based row number
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && rows[i][0] != "" {
			existing[rows[i][0]] = i + 1
		}
	}

	ids := make([]string, 0, len(opportunities))
	for id := range opportunities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nextRow := len(rows) + 1
	for _, id := range ids {
		opp := opportunities[id]

		if rowNum, ok := existing[id]; ok {
			setCell(f, SheetOpportunities, 7, rowNum, opp.LeadStatus)
			setCell(f, SheetOpportunities, 8, rowNum, opp.LastContacted)
			if opp.Notes != "" {
				setCell(f, SheetOpportunities, 10, rowNum, opp.Notes)
			}
			continue
		}

		values := []interface{}{
			opp.ID, opp.ContactName, opp.Company, opp.Email, opp.Phone,
			opp.Title, opp.LeadStatus, opp.LastContacted, "", opp.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, nextRow)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(SheetOpportunities, cell, &values); err != nil {
			return fmt.Errorf("failed to append opportunity row: %w", err)
		}
		if opp.FolderLink != "" {
			linkCell, _ := excelize.CoordinatesToCellName(9, nextRow)
			formula := fmt.Sprintf(`HYPERLINK("%s","Open Folder")`, opp.FolderLink)
			if err := f.SetCellFormula(SheetOpportunities, linkCell, formula); err != nil {
				return fmt.Errorf("failed to set folder link: %w", err)
			}
		}
		nextRow++
	}

	return w.save(f)
}

// AppendInteractionLog appends one row per meeting-bearing lead message.
func (w *Workbook) AppendInteractionLog(rows []InteractionRow) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	for _, row := range rows {
		values := []interface{}{
			row.OpportunityID, row.MeetingDate, row.Summary,
			row.ActionItems, row.Deadline, row.MeetingType, row.Timestamp,
		}
		if err := appendRow(f, SheetInteractions, values); err != nil {
			return err
		}
	}

	return w.save(f)
}

// InteractionHistory returns one line per logged interaction for the given
// opportunity, or for all opportunities when opportunityID is empty. A
// missing workbook yields an empty history, not an error.
func (w *Workbook) InteractionHistory(opportunityID string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return "", nil
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to open report %s: %w", w.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetInteractions)
	if err != nil {
		// Sheet may not exist in a workbook produced before first commit.
		return "", nil
	}

	history := ""
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		if opportunityID != "" && row[0] != opportunityID {
			continue
		}
		summary := cellAt(row, 2)
		timestamp := cellAt(row, 6)
		line := fmt.Sprintf("On %s, a meeting was logged: %s", timestamp, summary)
		if history != "" {
			history += "\n"
		}
		history += line
	}

	return history, nil
}

// open loads the workbook, creating it with the three header rows when it
// does not exist yet. Prior data is always loaded, never overwritten.
func (w *Workbook) open() (*excelize.File, error) {
	var f *excelize.File
	isNew := false

	if _, err := os.Stat(w.path); err == nil {
		f, err = excelize.OpenFile(w.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open report %s: %w", w.path, err)
		}
	} else if os.IsNotExist(err) {
		f = excelize.NewFile()
		isNew = true
	} else {
		return nil, fmt.Errorf("failed to stat report %s: %w", w.path, err)
	}

	if err := ensureSheets(f, isNew); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func ensureSheets(f *excelize.File, isNew bool) error {
	sheets := []struct {
		name    string
		headers []string
	}{
		{SheetOpportunities, opportunityHeaders},
		{SheetInteractions, interactionHeaders},
		{SheetEmails, emailHeaders},
	}

	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	for _, sheet := range sheets {
		if present[sheet.name] {
			continue
		}
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		values := make([]interface{}, len(sheet.headers))
		for i, h := range sheet.headers {
			values[i] = h
		}
		if err := f.SetSheetRow(sheet.name, "A1", &values); err != nil {
			return fmt.Errorf("failed to write headers of %s: %w", sheet.name, err)
		}
	}

	// Drop the default sheet of a freshly created workbook.
	if isNew {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	return nil
}

// save runs the styling pass and atomically replaces the file on disk.
func (w *Workbook) save(f *excelize.File) error {
	for _, sheet := range []string{SheetOpportunities, SheetInteractions, SheetEmails} {
		if err := w.style(f, sheet); err != nil {
			// Styling is cosmetic; a failure must not lose the data write.
			w.log.Warnf("Failed to style sheet %s: %v", sheet, err)
		}
	}

	dir := filepath.Dir(w.path)
	// SaveAs rejects paths without a workbook extension, so the temp file
	// must keep the report's extension for excelize to accept it.
	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*"+filepath.Ext(w.path))
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := f.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save report: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace report %s: %w", w.path, err)
	}

	return nil
}

func appendRow(f *excelize.File, sheet string, values []interface{}) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sheet, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to append row to %s: %w", sheet, err)
	}

	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	f.SetCellValue(sheet, cell, value)
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
