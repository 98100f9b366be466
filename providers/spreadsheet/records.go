package spreadsheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"aacsb-sync/models"
	"aacsb-sync/normalize"
	"aacsb-sync/providers"
)

// Spalten der Lehrpersonen-Datei.
const (
	colUserID        = "개인번호"
	colCampus        = "캠퍼스"
	colCollege       = "대학"
	colDepartment    = "학과"
	colTenureTrack   = "정년트랙구분"
	colJobType       = "직종"
	colJobRank       = "직급"
	colName          = "성명"
	colEnglishName   = "영문성명"
	colHighestDegree = "최종학위"
	colEmployment    = "재직구분"
	colEmail         = "이메일"
	colBachelorYear  = "학사학위취득년도"
	colMasterYear    = "석사학위취득년도"
	colDoctoralYear  = "박사학위취득년도"
)

// Spalten der Forschungsergebnis-Datei.
const (
	colResearchID      = "연구실적번호"
	colTitle           = "논문제목"
	colPublishedAt     = "발표일"
	colType            = "업적구분"
	colDomestic        = "국외국내"
	colDOI             = "doi(논문아이디)"
	colPublisher       = "발행기관/주관부처"
	colJournalName     = "학술지명"
	colJournalIndex    = "index"
	colRole            = "참여형태"
	colJournalCategory = "구분(논문/저서)"
	colImpactFactor    = "if"
	colQ1Last3Years    = "최근3년q1여부"
)

var excelSerialRE = regexp.MustCompile(`^\d{5}(\.\d+)?$`)

type facultyRow struct {
	row  Row
	file string
}

func (f facultyRow) Ref() string {
	return fmt.Sprintf("%s:%d", f.file, f.row.Line)
}

func (f facultyRow) Faculty() (*models.FacultyRecord, error) {
	r := f.row
	rec := &models.FacultyRecord{
		UserID:             normalize.Text(r.Get(colUserID)),
		Campus:             normalize.String(r.Get(colCampus)),
		College:            normalize.String(r.Get(colCollege)),
		Department:         normalize.String(r.Get(colDepartment)),
		TenureTrack:        normalize.String(r.Get(colTenureTrack)),
		JobType:            normalize.String(r.Get(colJobType)),
		JobRank:            normalize.String(r.Get(colJobRank)),
		Name:               normalize.Text(r.Get(colName)),
		EnglishName:        normalize.String(r.Get(colEnglishName)),
		HighestDegree:      normalize.String(r.Get(colHighestDegree)),
		EmploymentStatus:   normalize.String(r.Get(colEmployment)),
		Email:              normalize.String(r.Get(colEmail)),
		BachelorDegreeYear: normalize.Int(r.Get(colBachelorYear)),
		MasterDegreeYear:   normalize.Int(r.Get(colMasterYear)),
		DoctoralDegreeYear: normalize.Int(r.Get(colDoctoralYear)),
		DataSource:         models.SourceSpreadsheet,
	}
	if err := providers.ValidateFaculty(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type researchRow struct {
	row  Row
	file string
}

func (rr researchRow) Ref() string {
	if id := normalize.Text(rr.row.Get(colResearchID)); id != "" {
		return fmt.Sprintf("%s:%d (%s)", rr.file, rr.row.Line, id)
	}
	return fmt.Sprintf("%s:%d", rr.file, rr.row.Line)
}

func (rr researchRow) Research() (*models.ResearchOutput, error) {
	r := rr.row
	rec := &models.ResearchOutput{
		APIResearchID:   normalize.String(r.Get(colResearchID)),
		FacNIP:          normalize.Text(r.Get(colUserID)),
		Name:            normalize.String(r.Get(colName)),
		Title:           normalize.Text(r.Get(colTitle)),
		DOI:             normalize.String(r.Get(colDOI)),
		Publisher:       normalize.String(r.Get(colPublisher)),
		JournalName:     normalize.String(r.Get(colJournalName)),
		JournalIndex:    normalize.String(r.Get(colJournalIndex)),
		Type:            normalize.String(r.Get(colType)),
		JournalCategory: normalize.String(r.Get(colJournalCategory)),
		ImpactFactor:    normalize.Float(r.Get(colImpactFactor)),
		IsQ1Last3Years:  normalize.Flag(r.Get(colQ1Last3Years), "y", "yes"),
		IsDomestic:      normalize.Flag(r.Get(colDomestic), "국내"),
		Role:            normalize.String(r.Get(colRole)),
		DataSource:      models.SourceSpreadsheet,
	}
	if published, ok := cellDate(r.Get(colPublishedAt)); ok {
		rec.PublishedAt = published
	}
	if err := providers.CompleteResearch(rec, false); err != nil {
		return nil, err
	}
	return rec, nil
}

// cellDate akzeptiert Textdaten und Excel-Seriennummern.
func cellDate(s string) (time.Time, bool) {
	if t, ok := normalize.Date(s); ok {
		return t, true
	}
	s = strings.TrimSpace(s)
	if !excelSerialRE.MatchString(s) {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
