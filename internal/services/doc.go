// Package services contains the external calendar client.
//
// The task engine only sees the Calendar and CalendarProvider interfaces;
// the Google implementation lives here so credentials, token refresh, and
// wire formats never leak into orchestration code.
package services
