package reports

import (
	"html/template"
	"io"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
)

var reportFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"day":   func(t time.Time) string { return t.Format("02 Jan 2006") },
	"stamp": func(t time.Time) string { return t.Format("02 Jan 2006 15:04") },
}

const appointmentReportTemplate = `<!DOCTYPE html>
<html>
<head><title>Appointment Report</title></head>
<body>
<h1>Appointment Report</h1>
<p>{{day .FromDate}} &ndash; {{day .ToDate}}</p>
<table>
<tr><th>Total</th><th>Confirmed</th><th>Cancelled</th><th>Scheduled</th></tr>
<tr><td>{{.TotalAppointments}}</td><td>{{.ConfirmedAppointments}}</td><td>{{.CancelledAppointments}}</td><td>{{.ScheduledAppointments}}</td></tr>
</table>
<h2>By Specialty</h2>
<table>
<tr><th>Specialty</th><th>Appointments</th></tr>
{{range .BySpecialty}}<tr><td>{{.SpecialtyName}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
<h2>Details</h2>
<table>
<tr><th>#</th><th>Patient</th><th>Doctor</th><th>Specialty</th><th>Date</th><th>Time</th><th>Status</th></tr>
{{range .Details}}<tr><td>{{.AppointmentID}}</td><td>{{.PatientName}}</td><td>{{.DoctorName}}</td><td>{{.SpecialtyName}}</td><td>{{day .Date}}</td><td>{{.TimeOfDay}}</td><td>{{.Status}}</td></tr>
{{end}}</table>
</body>
</html>
`

const paymentReportTemplate = `<!DOCTYPE html>
<html>
<head><title>Payment Report</title></head>
<body>
<h1>Payment Report</h1>
<p>{{day .FromDate}} &ndash; {{day .ToDate}}</p>
<table>
<tr><th>Total Revenue</th><th>Completed</th><th>Pending</th><th>Transactions</th><th>Average</th></tr>
<tr><td>{{money .TotalRevenue}}</td><td>{{money .CompletedRevenue}}</td><td>{{money .PendingRevenue}}</td><td>{{.TotalTransactions}}</td><td>{{money .AverageTransactionValue}}</td></tr>
</table>
<h2>Details</h2>
<table>
<tr><th>#</th><th>Patient</th><th>Booking Ref</th><th>Amount</th><th>Status</th><th>Paid At</th></tr>
{{range .Details}}<tr><td>{{.PaymentID}}</td><td>{{.PatientName}}</td><td>{{.BookingRef}}</td><td>{{money .Amount}}</td><td>{{.Status}}</td><td>{{stamp .PaidAt}}</td></tr>
{{end}}</table>
</body>
</html>
`

const patientReportTemplate = `<!DOCTYPE html>
<html>
<head><title>Patient Report</title></head>
<body>
<h1>Patient Report</h1>
<p>{{day .FromDate}} &ndash; {{day .ToDate}}</p>
<table>
<tr><th>Total</th><th>New</th><th>Active</th><th>Inactive</th></tr>
<tr><td>{{.TotalPatients}}</td><td>{{.NewPatients}}</td><td>{{.ActivePatients}}</td><td>{{.InactivePatients}}</td></tr>
</table>
<h2>Details</h2>
<table>
<tr><th>#</th><th>Name</th><th>Username</th><th>Registered</th><th>Active</th><th>Appointments</th></tr>
{{range .Details}}<tr><td>{{.PatientID}}</td><td>{{.PatientName}}</td><td>{{.Username}}</td><td>{{day .RegisteredAt}}</td><td>{{.Active}}</td><td>{{.TotalAppointments}}</td></tr>
{{end}}</table>
</body>
</html>
`

var (
	appointmentTmpl = template.Must(template.New("appointments").Funcs(reportFuncs).Parse(appointmentReportTemplate))
	paymentTmpl     = template.Must(template.New("payments").Funcs(reportFuncs).Parse(paymentReportTemplate))
	patientTmpl     = template.Must(template.New("patients").Funcs(reportFuncs).Parse(patientReportTemplate))
)

func RenderAppointmentReport(w io.Writer, data models.AppointmentReportData) error {
	return appointmentTmpl.Execute(w, data)
}

func RenderPaymentReport(w io.Writer, data models.PaymentReportData) error {
	return paymentTmpl.Execute(w, data)
}

func RenderPatientReport(w io.Writer, data models.PatientReportData) error {
	return patientTmpl.Execute(w, data)
}
