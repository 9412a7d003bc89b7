package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Directory roles
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

type User struct {
	ID        uuid.UUID              `json:"id"`
	Username  string                 `json:"username"`
	Role      string                 `json:"role"`
	Active    bool                   `json:"active"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type Admin struct {
	ID      uint      `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email,omitempty"`
	Contact string    `json:"contact,omitempty"`
}

type Doctor struct {
	ID            uint            `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	ContactNo     string          `json:"contact_no,omitempty"`
	SpecialtyID   *uint           `json:"specialty_id,omitempty"`
	SpecialtyName string          `json:"specialty_name,omitempty"`
	LocationID    *uint           `json:"location_id,omitempty"`
	LocationName  string          `json:"location_name,omitempty"`
	AvailableTime string          `json:"available_time,omitempty"`
	Fee           decimal.Decimal `json:"fee"`
	Active        bool            `json:"active"`
}

type Patient struct {
	ID      uint      `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Address string    `json:"address,omitempty"`
	PhoneNo string    `json:"phone_no,omitempty"`
	Active  bool      `json:"active"`
}

type Specialty struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Location struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Directory requests
type RegisterPatientRequest struct {
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	Name     string                 `json:"name"`
	Address  string                 `json:"address,omitempty"`
	PhoneNo  string                 `json:"phone_no,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type AddDoctorRequest struct {
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	Name          string          `json:"name"`
	ContactNo     string          `json:"contact_no,omitempty"`
	SpecialtyID   *uint           `json:"specialty_id,omitempty"`
	LocationID    *uint           `json:"location_id,omitempty"`
	AvailableTime string          `json:"available_time,omitempty"`
	Fee           decimal.Decimal `json:"fee"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Appointment status enum. The legacy system overloaded a single boolean for
// confirmed and cancelled; this replaces it outright.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID           uint      `json:"id"`
	PatientID    uint      `json:"patient_id"`
	DoctorID     uint      `json:"doctor_id"`
	LocationID   *uint     `json:"location_id,omitempty"`
	Date         time.Time `json:"date"`
	TimeOfDay    string    `json:"time_of_day"`
	Status       string    `json:"status"`
	PatientName  string    `json:"patient_name,omitempty"`
	DoctorName   string    `json:"doctor_name,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PaymentInstrument struct {
	BankName   string `json:"bank_name,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVN        string `json:"cvn,omitempty"`
}

type BookAppointmentRequest struct {
	DoctorID   uint               `json:"doctor_id"`
	LocationID *uint              `json:"location_id,omitempty"`
	Date       string             `json:"date"`        // 2006-01-02
	TimeOfDay  string             `json:"time_of_day"` // 15:04
	PayNow     decimal.Decimal    `json:"pay_now"`
	Instrument *PaymentInstrument `json:"instrument,omitempty"`
}

type BookingResult struct {
	Appointment   Appointment     `json:"appointment"`
	BookingRef    string          `json:"booking_ref"`
	Fee           decimal.Decimal `json:"fee"`
	PaidNow       decimal.Decimal `json:"paid_now"`
	Remaining     decimal.Decimal `json:"remaining"`
	PaymentStatus string          `json:"payment_status"`
	Message       string          `json:"message"`
}

// Payment statuses kept as the legacy display strings; downstream consumers
// and existing rows depend on the exact spelling.
const (
	PaymentPending   = "Pending"
	PaymentCompleted = "Completed"
)

type Payment struct {
	ID            uint            `json:"id"`
	BookingRef    string          `json:"booking_ref"`
	PatientID     uint            `json:"patient_id"`
	AppointmentID *uint           `json:"appointment_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaidAt        time.Time       `json:"paid_at"`
	BankName      string          `json:"bank_name,omitempty"`
	MaskedCard    string          `json:"masked_card,omitempty"`
	Expiry        string          `json:"expiry,omitempty"`
}

type ApplyPaymentRequest struct {
	PaymentID  uint               `json:"payment_id"`
	Amount     decimal.Decimal    `json:"amount"`
	Instrument *PaymentInstrument `json:"instrument,omitempty"`
}

type PaymentOutcome struct {
	BookingRef    string          `json:"booking_ref"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	Remaining     decimal.Decimal `json:"remaining"`
	Settled       bool            `json:"settled"`
	Message       string          `json:"message"`
}

// PaymentSummary is the per-booking aggregate the payment screens render.
type PaymentSummary struct {
	Payment         Payment         `json:"payment"`
	DoctorName      string          `json:"doctor_name"`
	AppointmentDate *time.Time      `json:"appointment_date,omitempty"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	Remaining       decimal.Decimal `json:"remaining"`
	Status          string          `json:"status"`
}

type PatientLedger struct {
	Summaries []PaymentSummary `json:"summaries"`
	TotalDue  decimal.Decimal  `json:"total_due"`
	TotalPaid decimal.Decimal  `json:"total_paid"`
}

type PaymentHistoryEntry struct {
	Payment Payment `json:"payment"`
	Kind    string  `json:"kind"` // main or installment
}

// Medical records and feedback
type MedicalRecord struct {
	ID         uint      `json:"id"`
	PatientID  uint      `json:"patient_id"`
	DoctorID   *uint     `json:"doctor_id,omitempty"`
	DoctorName string    `json:"doctor_name,omitempty"`
	RecordDate time.Time `json:"record_date"`
	Notes      string    `json:"notes,omitempty"`
	Medicine   string    `json:"medicine,omitempty"`
}

type AddMedicalRecordRequest struct {
	PatientID uint   `json:"patient_id"`
	Notes     string `json:"notes,omitempty"`
	Medicine  string `json:"medicine,omitempty"`
}

type Feedback struct {
	ID            uint      `json:"id"`
	PatientID     uint      `json:"patient_id"`
	DoctorID      *uint     `json:"doctor_id,omitempty"`
	AppointmentID *uint     `json:"appointment_id,omitempty"`
	Rating        int       `json:"rating"`
	Comments      string    `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type SubmitFeedbackRequest struct {
	DoctorID      *uint  `json:"doctor_id,omitempty"`
	AppointmentID *uint  `json:"appointment_id,omitempty"`
	Rating        int    `json:"rating"`
	Comments      string `json:"comments,omitempty"`
}

// Event bus
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventAppointmentBooked = "appointment.booked"
	EventPaymentRecorded   = "payment.recorded"
	EventPaymentSettled    = "payment.settled"
)

// Reporting
type AppointmentReportItem struct {
	AppointmentID uint      `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	DoctorName    string    `json:"doctor_name"`
	SpecialtyName string    `json:"specialty_name,omitempty"`
	Date          time.Time `json:"date"`
	TimeOfDay     string    `json:"time_of_day"`
	Status        string    `json:"status"`
}

type SpecialtyAppointmentCount struct {
	SpecialtyName string `json:"specialty_name"`
	Count         int    `json:"count"`
}

type AppointmentReportData struct {
	FromDate              time.Time                   `json:"from_date"`
	ToDate                time.Time                   `json:"to_date"`
	TotalAppointments     int                         `json:"total_appointments"`
	ConfirmedAppointments int                         `json:"confirmed_appointments"`
	CancelledAppointments int                         `json:"cancelled_appointments"`
	ScheduledAppointments int                         `json:"scheduled_appointments"`
	Details               []AppointmentReportItem     `json:"details"`
	BySpecialty           []SpecialtyAppointmentCount `json:"by_specialty"`
}

type PaymentReportItem struct {
	PaymentID   uint            `json:"payment_id"`
	PatientName string          `json:"patient_name"`
	BookingRef  string          `json:"booking_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	PaidAt      time.Time       `json:"paid_at"`
}

type PaymentReportData struct {
	FromDate                time.Time           `json:"from_date"`
	ToDate                  time.Time           `json:"to_date"`
	TotalRevenue            decimal.Decimal     `json:"total_revenue"`
	CompletedRevenue        decimal.Decimal     `json:"completed_revenue"`
	PendingRevenue          decimal.Decimal     `json:"pending_revenue"`
	TotalTransactions       int                 `json:"total_transactions"`
	CompletedPayments       int                 `json:"completed_payments"`
	PendingPayments         int                 `json:"pending_payments"`
	AverageTransactionValue decimal.Decimal     `json:"average_transaction_value"`
	Details                 []PaymentReportItem `json:"details"`
}

type PatientReportItem struct {
	PatientID         uint      `json:"patient_id"`
	PatientName       string    `json:"patient_name"`
	Username          string    `json:"username"`
	RegisteredAt      time.Time `json:"registered_at"`
	Active            bool      `json:"active"`
	TotalAppointments int       `json:"total_appointments"`
}

type PatientReportData struct {
	FromDate         time.Time           `json:"from_date"`
	ToDate           time.Time           `json:"to_date"`
	TotalPatients    int                 `json:"total_patients"`
	NewPatients      int                 `json:"new_patients"`
	ActivePatients   int                 `json:"active_patients"`
	InactivePatients int                 `json:"inactive_patients"`
	Details          []PatientReportItem `json:"details"`
}

type RevenueReport struct {
	Day       string          `json:"day"`
	Recorded  decimal.Decimal `json:"recorded"`
	Settled   int64           `json:"settled_bookings"`
	UpdatedAt time.Time       `json:"updated_at"`
}
