// Package export renders submissions as the admin CSV download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"membership-signup/internal/models"
)

const (
	ContentType     = "text/csv"
	submittedLayout = "01/02/2006 15:04:05"
)

// Headers in column order.
var Headers = []string{
	"ID", "Submitted Date", "First Name", "Middle Name", "Last Name", "Nickname",
	"Email", "Phone", "Birth Date", "Address 1", "Address 2", "City", "State",
	"Zip Code", "Birth City/State", "Referral Source", "Referrer Name", "DBN Member",
	"Membership Status", "Membership Level", "Shirt Size", "Jacket Size",
	"Coupon Code", "Total Price",
}

// Filename is the download name for a file produced on day.
func Filename(day time.Time) string {
	return fmt.Sprintf("membership-submissions-%s.csv", day.Format("2006-01-02"))
}

// Write renders rows with submission times shown in loc.
func Write(w io.Writer, rows []*models.Membership, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, m := range rows {
		if err := cw.Write(record(m, loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(m *models.Membership, loc *time.Location) []string {
	return []string{
		m.ID,
		m.CreatedAt.In(loc).Format(submittedLayout),
		m.FirstName,
		m.MiddleName,
		m.LastName,
		m.Nickname,
		m.Email,
		m.Phone,
		m.BirthDate,
		m.Address1,
		m.Address2,
		m.City,
		m.State,
		m.ZipCode,
		m.BirthCityState,
		m.ReferralSource,
		m.ReferrerName,
		m.IsDbnMember,
		m.MembershipStatus,
		m.MembershipLevel,
		m.ShirtSize,
		m.JacketSize,
		m.CouponCode,
		strconv.FormatFloat(m.TotalPrice, 'f', -1, 64),
	}
}
