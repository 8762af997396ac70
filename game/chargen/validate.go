package chargen

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type IssueCode string

const (
	IssuePrioritiesIncomplete IssueCode = "priorities_incomplete"
	IssuePrioritiesDuplicate  IssueCode = "priorities_duplicate"
	IssueUnknownMetatype      IssueCode = "unknown_metatype"
	IssueOverspent            IssueCode = "overspent"
	IssueUnderspent           IssueCode = "underspent"
	IssueEssenceNegative      IssueCode = "essence_negative"
	IssueEssenceLow           IssueCode = "essence_low"
	IssueNuyenNegative        IssueCode = "nuyen_negative"
	IssueNuyenUnspent         IssueCode = "nuyen_unspent"
	IssueTraditionMissing     IssueCode = "tradition_missing"
)

// Field names issues are attributed to. Tracker field keys use the same names.
const (
	FieldPriorities   = "priorities"
	FieldMetatype     = "metatype"
	FieldAttributes   = "attributes"
	FieldSpecial      = "special"
	FieldSkills       = "skills"
	FieldSkillGroups  = "skill_groups"
	FieldKnowledge    = "knowledge"
	FieldSpells       = "spells"
	FieldPowers       = "powers"
	FieldComplexForms = "complex_forms"
	FieldAugments     = "augments"
	FieldNuyen        = "nuyen"
	FieldTradition    = "tradition"
	FieldMagic        = "magic"
	FieldGear         = "gear"
	FieldDrones       = "drones"
	FieldQualities    = "qualities"
	FieldContacts     = "contacts"
	FieldName         = "name"
	// FieldBuild covers edits that replace the whole state.
	FieldBuild = "build"
)

type Issue struct {
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	Field    string    `json:"field"`
	Message  string    `json:"message"`
}

// Key identifies an issue independent of its message.
func (i Issue) Key() string { return string(i.Code) + "/" + i.Field }

type Result struct {
	Issues  []Issue `json:"issues"`
	CanSave bool    `json:"can_save"`
}

// Errors returns only the blocking issues.
func (r Result) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Validate scans a state and its dashboard. It is total: every structurally valid
// state, including an empty one, yields a result.
func Validate(s *CharacterState, d Dashboard, rules Rules) Result {
	if s == nil {
		s = NewCharacterState()
	}
	var issues []Issue
	add := func(code IssueCode, sev Severity, field, format string, args ...any) {
		issues = append(issues, Issue{Code: code, Severity: sev, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	assigned := 0
	for _, c := range rules.Categories {
		if s.Priorities[c] != "" {
			assigned++
		}
	}
	if assigned < len(rules.Categories) {
		add(IssuePrioritiesIncomplete, SeverityError, FieldPriorities,
			"priorities: %d of %d categories assigned", assigned, len(rules.Categories))
	}
	if dup := s.Priorities.Duplicates(rules); len(dup) > 0 {
		names := make([]string, len(dup))
		for i, l := range dup {
			names[i] = string(l)
		}
		add(IssuePrioritiesDuplicate, SeverityError, FieldPriorities,
			"priorities: letter %s assigned more than once", strings.Join(names, ", "))
	}
	for _, c := range sortedKeys(s.Priorities) {
		l := s.Priorities[c]
		if l != "" && (!rules.validLetter(l) || !rules.validCategory(c)) {
			add(IssuePrioritiesIncomplete, SeverityError, FieldPriorities,
				"priorities: invalid assignment %s=%s", c, l)
		}
	}

	checkPool(&issues, FieldAttributes, "attribute points", d.Attributes, true)
	checkPool(&issues, FieldSkills, "skill points", d.Skills, true)
	checkPool(&issues, FieldSkillGroups, "skill group points", d.SkillGroups, false)
	checkPool(&issues, FieldSpecial, "special attribute points", d.Special, true)
	checkPool(&issues, FieldKnowledge, "knowledge skill points", d.Knowledge, false)
	checkPool(&issues, FieldSpells, "spells", d.Spells, false)
	checkPool(&issues, FieldComplexForms, "complex forms", d.ComplexForms, false)
	if d.PowerPoints.Spent > d.PowerPoints.Total {
		add(IssueOverspent, SeverityError, FieldPowers,
			"power points: %.2f spent of %.2f", d.PowerPoints.Spent, d.PowerPoints.Total)
	}

	switch {
	case d.Essence.Remaining < 0:
		add(IssueEssenceNegative, SeverityError, FieldAugments,
			"essence: %.2f remaining", d.Essence.Remaining)
	case d.Essence.Remaining < rules.EssenceWarning:
		add(IssueEssenceLow, SeverityWarning, FieldAugments,
			"essence: only %.2f remaining", d.Essence.Remaining)
	}

	switch {
	case d.Nuyen.Remaining < 0:
		add(IssueNuyenNegative, SeverityError, FieldNuyen,
			"nuyen: overspent by %d", -d.Nuyen.Remaining)
	case d.Nuyen.Remaining > rules.UnspentNuyen:
		add(IssueNuyenUnspent, SeverityInfo, FieldNuyen,
			"nuyen: %d unspent", d.Nuyen.Remaining)
	}

	if rules.requiresTradition(s.Awakening) && s.Tradition == "" {
		add(IssueTraditionMissing, SeverityError, FieldTradition,
			"tradition: %s must choose a tradition", s.Awakening)
	}

	res := Result{Issues: issues, CanSave: true}
	for _, i := range issues {
		if i.Severity == SeverityError {
			res.CanSave = false
			break
		}
	}
	return res
}

// ValidateMetatype adds the catalog-dependent checks Validate cannot make alone.
func ValidateMetatype(s *CharacterState, c *Catalog, r Result) Result {
	if _, ok := c.Metatype(s.Metatype); ok {
		return r
	}
	r.Issues = append(r.Issues, Issue{
		Code:     IssueUnknownMetatype,
		Severity: SeverityError,
		Field:    FieldMetatype,
		Message:  fmt.Sprintf("metatype: %q is not in the catalog", s.Metatype),
	})
	r.CanSave = false
	return r
}

// Check runs ComputeBudget, Validate and ValidateMetatype in one call.
func Check(s *CharacterState, c *Catalog) (Dashboard, Result) {
	d := ComputeBudget(s, c)
	return d, ValidateMetatype(s, c, Validate(s, d, c.Rules))
}

func checkPool(issues *[]Issue, field, label string, p Pool, warnUnder bool) {
	switch {
	case p.Spent > p.Total:
		*issues = append(*issues, Issue{
			Code: IssueOverspent, Severity: SeverityError, Field: field,
			Message: fmt.Sprintf("%s: %d spent of %d", label, p.Spent, p.Total),
		})
	case warnUnder && p.Spent < p.Total:
		*issues = append(*issues, Issue{
			Code: IssueUnderspent, Severity: SeverityWarning, Field: field,
			Message: fmt.Sprintf("%s: %d of %d unspent", label, p.Remaining, p.Total),
		})
	}
}

// NewErrors returns the blocking issues in next that are absent from prev.
func NewErrors(prev, next Result) []Issue {
	seen := make(map[string]bool, len(prev.Issues))
	for _, i := range prev.Issues {
		if i.Severity == SeverityError {
			seen[i.Key()] = true
		}
	}
	var out []Issue
	for _, i := range next.Issues {
		if i.Severity != SeverityError || seen[i.Key()] {
			continue
		}
		out = append(out, i)
	}
	return out
}
