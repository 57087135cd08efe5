// Package services defines shared helpers for the task handlers and
// external tool integrations: context annotation for logging, and error
// markers that classify failures consistently across handlers.
package services
