package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/repository"
)

// permissionExportHeader is the column layout of the catalog sheet.
var permissionExportHeader = []string{
	"Code",
	"Name",
	"Type",
	"Action",
	"Status",
	"Resource",
	"Module",
	"Dangerous",
	"Conditions",
	"Fields",
	"Expires At",
	"Created At",
}

// ExportService writes a tenant's permission catalog as an xlsx workbook,
// one row per permission.
type ExportService struct {
	permissionRepo repository.PermissionRepository
}

// NewExportService creates a new export service
func NewExportService(permissionRepo repository.PermissionRepository) *ExportService {
	return &ExportService{permissionRepo: permissionRepo}
}

// ExportPermissions streams the tenant's catalog to w, optionally scoped to
// one organization.
func (s *ExportService) ExportPermissions(tenantID uuid.UUID, orgID *uuid.UUID, w io.Writer) error {
	permissions, err := s.permissionRepo.ListByTenant(tenantID, orgID, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list permissions: %w", err)
	}

	f := excelize.NewFile()
	// No deferred Close: WriteTo needs the file open, so every path closes
	// explicitly.

	const sheetName = "Permissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range permissionExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, p := range permissions {
		row := i + 2 // row 1 is the header
		for col, value := range permissionExportRow(p) {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// Freeze the header row
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return f.Close()
}

func permissionExportRow(p *domain.Permission) []any {
	dangerous := "No"
	if p.Action().IsDangerous() {
		dangerous = "Yes"
	}

	conditionCount := 0
	if c := p.Conditions(); c != nil {
		conditionCount = c.Count()
	}

	expires := ""
	if t := p.ExpiresAt(); t != nil {
		expires = t.Format("2006-01-02 15:04:05")
	}

	return []any{
		p.Code(),
		p.Name(),
		string(p.Type()),
		string(p.Action()),
		string(p.Status()),
		p.Resource(),
		p.Module(),
		dangerous,
		conditionCount,
		strings.Join(p.Fields(), ", "),
		expires,
		p.CreatedAt().Format("2006-01-02 15:04:05"),
	}
}
