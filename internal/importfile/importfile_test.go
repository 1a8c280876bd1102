package importfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSV(t *testing.T) {
	in := "\ufeffFirst Name, Email ,Phone,\n" +
		" Jane ,jane@acme.com,(415) 555-0100\n" +
		",,,\n" +
		"Bob,bob@corp.net,2125550199,extra,more\n"

	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"First Name", "Email", "Phone", "column_4"}, tbl.Columns)
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, []string{"Jane", "jane@acme.com", "(415) 555-0100"}, tbl.Records[0])

	rows := tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, fingerprint.Row{"First Name": "Jane", "Email": "jane@acme.com", "Phone": "(415) 555-0100", "column_4": ""}, rows[0])
	assert.Equal(t, "extra", rows[1]["column_4"])
	assert.Len(t, rows[1], 4)
}

func TestRead_CSV(t *testing.T) {
	path := writeFile(t, "leads.CSV", "email\na@x.com\n")
	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, tbl.Columns)
	assert.Len(t, tbl.Records, 1)
}

func TestRead_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {
			{"Name", "Company", "Phone"},
			{"Jane Doe", " Acme Inc ", "4155550100"},
			{"Bob Jones", "Globex", ""},
		},
	})

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Company", "Phone"}, tbl.Columns)
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, "Acme Inc", tbl.Records[0][1])
}

func TestReadXLSX_NamedSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Other": {{"x"}, {"1"}},
	})

	tbl, err := ReadXLSX(path, "Other")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tbl.Columns)

	_, err = ReadXLSX(path, "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRead_Unsupported(t *testing.T) {
	_, err := Read(writeFile(t, "leads.txt", "email\n"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestCanonicalField(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"First Name", fieldFirstName},
		{"first_name", fieldFirstName},
		{"E-mail", fieldEmail},
		{"  Phone   Number ", fieldPhone},
		{"LinkedIn URL", fieldLinkedIn},
		{"Lead Status", fieldStatus},
		{"favorite color", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalField(tt.header))
		})
	}
}

func TestMapLeads(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []fingerprint.Row{
		{
			"ID":           "lead-1",
			"First Name":   "Jane",
			"Last Name":    "Doe",
			"Email":        "jane@acme.com",
			"Company":      "Acme",
			"Status":       "call_back",
			"Emails Sent":  "3",
			"Last Contact": "2024-04-15",
			"Created At":   "2024-01-02T03:04:05Z",
			"Completeness": "120",
			"Shoe Size":    "9",
		},
		{
			"Full Name":   "Bob van Jones",
			"Phone":       "4155550100",
			"Emails Sent": "-2",
		},
	}

	leads := MapLeads(rows, now)
	require.Len(t, leads, 2)

	jane := leads[0]
	assert.Equal(t, "lead-1", jane.ID)
	assert.Equal(t, "Jane Doe", jane.FullName())
	assert.Equal(t, model.StatusCallBack, jane.Status)
	assert.Equal(t, 3, jane.EmailsSent)
	require.NotNil(t, jane.LastContactDate)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), *jane.LastContactDate)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), jane.CreatedAt)
	assert.Equal(t, 100, jane.CompletenessScore)

	bob := leads[1]
	_, err := uuid.Parse(bob.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Bob", bob.FirstName)
	assert.Equal(t, "van Jones", bob.LastName)
	assert.Equal(t, model.StatusNew, bob.Status)
	assert.Equal(t, 0, bob.EmailsSent)
	assert.Nil(t, bob.LastContactDate)
	assert.Equal(t, now, bob.CreatedAt)
	assert.Equal(t, 30, bob.CompletenessScore)
}

func TestMapLeads_DuplicateHeaders(t *testing.T) {
	leads := MapLeads([]fingerprint.Row{
		{"Work Email": "w@acme.com", "Email": "", "E-mail": "e@acme.com"},
	}, time.Now())
	require.Len(t, leads, 1)
	// "E-mail" sorts before "Work Email"; blank "Email" is skipped.
	assert.Equal(t, "e@acme.com", leads[0].Email)
}
