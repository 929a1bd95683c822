package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"neela-data/internal/config"
	"neela-data/internal/domain"
)

var unresolvedPlaceholder = regexp.MustCompile(`\{\{\s*[A-Za-z_][A-Za-z0-9_]*\s*\}\}`)

// TemplateDrafter 本地填充模板占位符，不依赖外部服务
type TemplateDrafter struct {
	settings config.Settings
	now      func() time.Time
}

func NewTemplateDrafter(settings config.Settings) *TemplateDrafter {
	return &TemplateDrafter{settings: settings, now: time.Now}
}

// DraftLease 替换 {{name}}；仍有未知占位符时报错，不返回半成品
func (d *TemplateDrafter) DraftLease(_ context.Context, applicant domain.Tenant, tpl config.LeaseTemplate) (string, error) {
	return d.fill("lease template "+tpl.ID, tpl.Body, applicant)
}

// DraftNotice 通知模板额外支持 {{balance}} 和 {{grace_period}}
func (d *TemplateDrafter) DraftNotice(_ context.Context, tenant domain.Tenant, tpl config.NoticeTemplate) (string, error) {
	return d.fill("notice template "+tpl.Type, tpl.Body, tenant)
}

func (d *TemplateDrafter) fill(what, body string, t domain.Tenant) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%s has no body", what)
	}
	fin := d.settings.Finance
	r := strings.NewReplacer(
		"{{date}}", d.now().Format("January 2, 2006"),
		"{{company_name}}", d.settings.Branding.CompanyName,
		"{{tenant_name}}", t.Name,
		"{{property_address}}", t.PropertyUnit,
		"{{rent_amount}}", t.RentAmount.StringFixed(2),
		"{{balance}}", t.Balance.StringFixed(2),
		"{{due_day}}", ordinal(fin.DueDay),
		"{{grace_period}}", strconv.Itoa(fin.GracePeriod),
		"{{lease_term}}", strconv.Itoa(leaseTermMonths(t)),
		"{{start_date}}", t.LeaseStart.String(),
		"{{late_fee_initial}}", fin.LateFeeInitial.StringFixed(2),
		"{{late_fee_daily}}", fin.LateFeeDaily.StringFixed(2),
	)
	out := r.Replace(body)
	if m := unresolvedPlaceholder.FindString(out); m != "" {
		return "", fmt.Errorf("%s: unresolved placeholder %s", what, m)
	}
	return out, nil
}

// leaseTermMonths 租期月数，缺日期时按 12
func leaseTermMonths(t domain.Tenant) int {
	if t.LeaseStart.IsZero() || t.LeaseEnd.IsZero() {
		return 12
	}
	s, e := t.LeaseStart.Time, t.LeaseEnd.Time
	months := (e.Year()-s.Year())*12 + int(e.Month()-s.Month())
	if e.Day() >= s.Day() {
		months++
	}
	if months <= 0 {
		return 12
	}
	return months
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
