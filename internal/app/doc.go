// Package app composes the settlement layer into a running application.
//
// It wires the business services (internal/app/services) to their storage
// (internal/app/storage) and exposes them through internal/app/httpapi.
// Domain models live in internal/app/domain as pure data plus the
// settlement transition; they carry no I/O.
//
//	internal/app/
//	├── application.go      # Application struct and wiring
//	├── domain/ledger/      # Transaction, Purchase, settlement transition
//	├── services/rtctoken/  # RTC access-token minting
//	├── services/payments/  # Charge initiation and webhook reconciliation
//	├── storage/            # LedgerStore interface (memory/, postgres/)
//	├── httpapi/            # HTTP handlers and routing
//	└── metrics/            # Prometheus collectors
package app
