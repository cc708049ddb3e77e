package ascii

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/denchenko/gmm/internal/core/domain"
)

const (
	descriptionMaxLen = 80
	boxWidth          = 100
	boxTitlePadding   = 5
	boxBottomPadding  = 2
	ellipsis          = "..."
	noValue           = "-"
)

var (
	//go:embed projects.tmpl
	projectsTemplate string

	//go:embed project_members.tmpl
	projectMembersTemplate string

	//go:embed local_members.tmpl
	localMembersTemplate string

	//go:embed groups.tmpl
	groupsTemplate string

	//go:embed group_members.tmpl
	groupMembersTemplate string

	//go:embed batch_result.tmpl
	batchResultTemplate string

	//go:embed profile.tmpl
	profileTemplate string
)

// PageInfo holds the pagination footer of listing templates.
type PageInfo struct {
	Page    int
	PerPage int
	Total   int
	Shown   int
	HasNext bool
}

// ProjectsData holds data for the project search template.
type ProjectsData struct {
	Items []domain.ProjectSummary
	Page  PageInfo
}

// ProjectMembersData holds data for the project members template.
type ProjectMembersData struct {
	Project string
	Items   []domain.ProjectMember
	Page    PageInfo
}

// LocalMembersData holds data for the local roster template.
type LocalMembersData struct {
	Items []domain.LocalMember
	Page  PageInfo
}

// GroupsData holds data for the local groups template.
type GroupsData struct {
	Groups []domain.LocalGroup
}

// GroupMembersData holds data for the group members template.
type GroupMembersData struct {
	GroupID int64
	Members []domain.LocalMember
}

// BatchResultData holds data for the batch result template.
type BatchResultData struct {
	Action  string
	Project string
	Result  *domain.BatchResult
}

// ProfileData holds data for the connection profile template.
type ProfileData struct {
	Profile domain.ConnectionProfile
	Set     bool
}

// FormatProjects formats one page of a project search.
func FormatProjects(page *domain.Page[domain.ProjectSummary]) (string, error) {
	return execute("projects", projectsTemplate, ProjectsData{
		Items: page.Items,
		Page:  pageInfo(page.Page, page.PerPage, page.Total, len(page.Items), page.HasNext()),
	})
}

// FormatProjectMembers formats one page of project members.
func FormatProjectMembers(ref domain.ProjectRef, page *domain.Page[domain.ProjectMember]) (string, error) {
	return execute("projectMembers", projectMembersTemplate, ProjectMembersData{
		Project: ref.String(),
		Items:   page.Items,
		Page:    pageInfo(page.Page, page.PerPage, page.Total, len(page.Items), page.HasNext()),
	})
}

// FormatLocalMembers formats one page of the local roster.
func FormatLocalMembers(page *domain.Page[domain.LocalMember]) (string, error) {
	return execute("localMembers", localMembersTemplate, LocalMembersData{
		Items: page.Items,
		Page:  pageInfo(page.Page, page.PerPage, page.Total, len(page.Items), page.HasNext()),
	})
}

// FormatGroups formats the local groups.
func FormatGroups(groups []domain.LocalGroup) (string, error) {
	return execute("groups", groupsTemplate, GroupsData{Groups: groups})
}

// FormatGroupMembers formats the members of a local group.
func FormatGroupMembers(groupID int64, members []domain.LocalMember) (string, error) {
	return execute("groupMembers", groupMembersTemplate, GroupMembersData{GroupID: groupID, Members: members})
}

// FormatBatchResult formats the outcome of a batch mutation.
func FormatBatchResult(action string, ref domain.ProjectRef, result *domain.BatchResult) (string, error) {
	return execute("batchResult", batchResultTemplate, BatchResultData{
		Action:  action,
		Project: ref.String(),
		Result:  result,
	})
}

// FormatProfile formats the connection profile with a masked token.
func FormatProfile(p domain.ConnectionProfile, set bool) (string, error) {
	return execute("profile", profileTemplate, ProfileData{Profile: p, Set: set})
}

func pageInfo(page, perPage, total, shown int, hasNext bool) PageInfo {
	return PageInfo{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Shown:   shown,
		HasNext: hasNext,
	}
}

func execute(name, templateStr string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatBoxTitle":      formatBoxTitle,
		"formatBoxBottom":     formatBoxBottom,
		"formatTimestamp":     formatTimestamp,
		"truncate":            truncate,
		"truncateDescription": truncateDescription,
		"pageFooter":          pageFooter,
		"projectHint":         projectHint,
		"joinIDs":             joinIDs,
		"bold": func(text string) string {
			return "\033[1m" + text + "\033[0m"
		},
		"green": func(text string) string {
			return "\033[32m" + text + "\033[0m"
		},
		"red": func(text string) string {
			return "\033[31m" + text + "\033[0m"
		},
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= len(ellipsis) {
		return string(r[:maxLen])
	}

	return string(r[:maxLen-len(ellipsis)]) + ellipsis
}

func truncateDescription(desc string) string {
	// Collapse line breaks so each description stays on one line.
	for strings.Contains(desc, "\n\n") {
		desc = strings.ReplaceAll(desc, "\n\n", "; ")
	}
	desc = strings.ReplaceAll(desc, "\n", "; ")

	return truncate(desc, descriptionMaxLen)
}

func formatBoxTitle(title string) string {
	titleMax := boxWidth - boxTitlePadding // space for ┌─, ─┐, and spaces

	cleanTitle := stripANSI(title)
	if len([]rune(cleanTitle)) > titleMax {
		cleanTitle = string([]rune(cleanTitle)[:titleMax])
	}

	dashCount := max(boxWidth-len([]rune(cleanTitle))-boxTitlePadding, 0)

	return "┌─ " + title + " " + strings.Repeat("─", dashCount) + "┐"
}

func formatBoxBottom() string {
	return "└" + strings.Repeat("─", boxWidth-boxBottomPadding) + "┘"
}

func stripANSI(s string) string {
	for _, code := range []string{"\033[1m", "\033[0m", "\033[31m", "\033[32m"} {
		s = strings.ReplaceAll(s, code, "")
	}

	return s
}

// formatTimestamp renders RFC 3339 timestamps in local time, anything else verbatim.
func formatTimestamp(raw string) string {
	if raw == "" {
		return noValue
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}

	return t.Local().Format("2006-01-02 15:04")
}

func pageFooter(p PageInfo) string {
	if p.Shown == 0 && p.Page <= 1 {
		return ""
	}

	first := (p.Page-1)*p.PerPage + 1
	footer := fmt.Sprintf("Page %d, items %d-%d of %d", p.Page, first, first+p.Shown-1, p.Total)
	if p.Shown == 0 {
		footer = fmt.Sprintf("Page %d is empty, %d item(s) in total", p.Page, p.Total)
	}
	if p.HasNext {
		footer += fmt.Sprintf(", next: --page %d", p.Page+1)
	}

	return footer
}

func projectHint(m domain.LocalMember) string {
	switch {
	case m.ProjectName != "":
		return m.ProjectName
	case m.ProjectID != 0:
		return "project " + strconv.Itoa(m.ProjectID)
	default:
		return ""
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return strings.Join(parts, ", ")
}
