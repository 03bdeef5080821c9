package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "HLOOP_DATABASE_TYPE"
const DATABASE_URL = "HLOOP_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "HLOOP_DATABASE_SQLLITE_FILE_NAME"
const REDIS_ADDRESS = "HLOOP_REDIS_ADDRESS"
const SERVER_WEB_PORT = "HLOOP_SERVER_WEB_PORT"
const ENGINE_OUTBOX_INTERVAL = "HLOOP_ENGINE_OUTBOX_INTERVAL"
const ENGINE_BATCH_SIZE = "HLOOP_ENGINE_BATCH_SIZE"   //number of outbox entries to claim from the database at a time
const ENGINE_WORKER_SIZE = "HLOOP_ENGINE_WORKER_SIZE" //number of run workers ie the parallel nature of run execution
const ENGINE_STALE_CLAIM_INTERVAL = "HLOOP_ENGINE_STALE_CLAIM_INTERVAL"
const ENGINE_STALE_CLAIM_AFTER_MINUTES = "HLOOP_ENGINE_STALE_CLAIM_AFTER_MINUTES"
const POLL_SWEEP_INTERVAL = "HLOOP_POLL_SWEEP_INTERVAL"
const POLL_HASH_TTL_HOURS = "HLOOP_POLL_HASH_TTL_HOURS"
const SCHEDULE_SWEEP_INTERVAL = "HLOOP_SCHEDULE_SWEEP_INTERVAL"

const EMAIL_RELAY_URL = "HLOOP_EMAIL_RELAY_URL"
const EMAIL_API_KEY = "HLOOP_EMAIL_API_KEY"
const SOLANA_WALLET_URL = "HLOOP_SOLANA_WALLET_URL"
const SHEETS_API_URL = "HLOOP_SHEETS_API_URL"
const SHEETS_API_TOKEN = "HLOOP_SHEETS_API_TOKEN"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == ENGINE_OUTBOX_INTERVAL {
		return "3s" // default to 3 seconds
	}
	if settingKey == ENGINE_BATCH_SIZE {
		return "5"
	}
	if settingKey == ENGINE_WORKER_SIZE {
		return "5"
	}
	if settingKey == ENGINE_STALE_CLAIM_INTERVAL {
		return "60s"
	}
	if settingKey == ENGINE_STALE_CLAIM_AFTER_MINUTES {
		return "5" // requeue outbox claims older than 5 minutes
	}
	if settingKey == POLL_SWEEP_INTERVAL {
		return "60s"
	}
	if settingKey == POLL_HASH_TTL_HOURS {
		return "168" // one week of row hash retention
	}
	if settingKey == SCHEDULE_SWEEP_INTERVAL {
		return "30s"
	}
	if settingKey == SERVER_WEB_PORT {
		return "8080"
	}
	if settingKey == REDIS_ADDRESS {
		return "localhost:6379"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./hookloop.db"
	}
	if settingKey == SHEETS_API_URL {
		return "https://sheets.googleapis.com"
	}
	return ""
}
