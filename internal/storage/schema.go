package storage

// Schema holds the DDL for the hypertable and its continuous aggregates.
// It is applied once at first startup; the writers and query planner
// assume these exact table and column names.
const Schema = `
CREATE TABLE IF NOT EXISTS traces (
	trace_id         TEXT PRIMARY KEY,
	service_name     TEXT NOT NULL,
	root_span_name   TEXT NOT NULL,
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ NOT NULL,
	duration_ms      DOUBLE PRECISION NOT NULL,
	span_count       INTEGER NOT NULL,
	conversation_id  TEXT,
	user_id          TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS llm_traces (
	span_id              TEXT NOT NULL,
	trace_id             TEXT NOT NULL,
	parent_span_id       TEXT,
	ts                   TIMESTAMPTZ NOT NULL,
	provider             TEXT NOT NULL,
	model                TEXT NOT NULL,
	status_code          TEXT NOT NULL,
	duration_ms          DOUBLE PRECISION NOT NULL,
	ttft_ms              DOUBLE PRECISION,
	prompt_tokens        BIGINT,
	completion_tokens    BIGINT,
	total_tokens         BIGINT,
	total_cost_usd       DOUBLE PRECISION,
	prompt_cost_usd      DOUBLE PRECISION,
	completion_cost_usd  DOUBLE PRECISION,
	input                JSONB,
	output               JSONB,
	conversation_id      TEXT,
	user_id              TEXT,
	environment          TEXT,
	tags                 TEXT[],
	attributes           JSONB,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (ts, trace_id, span_id)
);
SELECT create_hypertable('llm_traces', 'ts', if_not_exists => TRUE);

CREATE TABLE IF NOT EXISTS trace_events (
	event_id    UUID PRIMARY KEY,
	trace_id    TEXT NOT NULL,
	span_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	attributes  JSONB
);

CREATE TABLE IF NOT EXISTS metrics (
	metric_name   TEXT NOT NULL,
	service_name  TEXT NOT NULL,
	type          TEXT NOT NULL,
	unit          TEXT NOT NULL,
	description   TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (metric_name, service_name)
);

CREATE TABLE IF NOT EXISTS metric_data_points (
	data_point_id  UUID PRIMARY KEY,
	metric_name    TEXT NOT NULL,
	service_name   TEXT NOT NULL,
	ts             TIMESTAMPTZ NOT NULL,
	value          DOUBLE PRECISION NOT NULL,
	attributes     JSONB
);

CREATE TABLE IF NOT EXISTS logs (
	id                   UUID PRIMARY KEY,
	ts                   TIMESTAMPTZ NOT NULL,
	observed_ts          TIMESTAMPTZ NOT NULL,
	severity_number      INTEGER NOT NULL,
	severity_text        TEXT NOT NULL,
	body                 TEXT NOT NULL,
	service_name         TEXT NOT NULL,
	trace_id             TEXT,
	span_id              TEXT,
	trace_flags          INTEGER,
	attributes           JSONB,
	resource_attributes  JSONB,
	scope_name           TEXT,
	scope_version        TEXT,
	scope_attributes     JSONB,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Continuous aggregates, one per supported query granularity. Refreshed
-- automatically by the database; queried read-only by the planner.
CREATE MATERIALIZED VIEW IF NOT EXISTS llm_traces_1m
WITH (timescaledb.continuous) AS
SELECT
	time_bucket('1 minute', ts) AS bucket,
	provider,
	model,
	count(*) AS request_count,
	sum(total_cost_usd) AS total_cost_usd,
	sum(prompt_cost_usd) AS prompt_cost_usd,
	sum(completion_cost_usd) AS completion_cost_usd,
	avg(duration_ms) AS avg_duration_ms,
	min(duration_ms) AS min_duration_ms,
	max(duration_ms) AS max_duration_ms,
	sum(total_tokens) AS total_tokens,
	sum(CASE WHEN status_code = 'OK' THEN 1 ELSE 0 END) AS success_count
FROM llm_traces
GROUP BY bucket, provider, model
WITH NO DATA;

CREATE MATERIALIZED VIEW IF NOT EXISTS llm_traces_1h
WITH (timescaledb.continuous) AS
SELECT
	time_bucket('1 hour', ts) AS bucket,
	provider,
	model,
	count(*) AS request_count,
	sum(total_cost_usd) AS total_cost_usd,
	sum(prompt_cost_usd) AS prompt_cost_usd,
	sum(completion_cost_usd) AS completion_cost_usd,
	avg(duration_ms) AS avg_duration_ms,
	min(duration_ms) AS min_duration_ms,
	max(duration_ms) AS max_duration_ms,
	sum(total_tokens) AS total_tokens,
	sum(CASE WHEN status_code = 'OK' THEN 1 ELSE 0 END) AS success_count
FROM llm_traces
GROUP BY bucket, provider, model
WITH NO DATA;

CREATE MATERIALIZED VIEW IF NOT EXISTS llm_traces_1d
WITH (timescaledb.continuous) AS
SELECT
	time_bucket('1 day', ts) AS bucket,
	provider,
	model,
	count(*) AS request_count,
	sum(total_cost_usd) AS total_cost_usd,
	sum(prompt_cost_usd) AS prompt_cost_usd,
	sum(completion_cost_usd) AS completion_cost_usd,
	avg(duration_ms) AS avg_duration_ms,
	min(duration_ms) AS min_duration_ms,
	max(duration_ms) AS max_duration_ms,
	sum(total_tokens) AS total_tokens,
	sum(CASE WHEN status_code = 'OK' THEN 1 ELSE 0 END) AS success_count
FROM llm_traces
GROUP BY bucket, provider, model
WITH NO DATA;
`
