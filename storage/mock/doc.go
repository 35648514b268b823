// Package mock provides a test double for storage.RecordRepository.
package mock
