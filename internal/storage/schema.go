package storage

const schema = `
-- The 'cards' table stores the learner's progress on each catalog entry.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    dictionary_id TEXT NOT NULL UNIQUE,
    added_at TEXT NOT NULL,
    stage INTEGER NOT NULL CHECK (stage BETWEEN 0 AND 9),
    due_date TEXT, -- NULL only for burned cards
    current_incorrect_count INTEGER NOT NULL DEFAULT 0 CHECK (current_incorrect_count >= 0),
    example_text TEXT,
    translated_text TEXT,
    image_ref TEXT,

    CHECK ((stage = 9) = (due_date IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_cards_stage_due_date ON cards(stage, due_date);

-- The 'review_history' table is the append-only ledger of answered attempts.
-- card_id is a plain reference: rows outlive the card they were written for.
CREATE TABLE IF NOT EXISTS review_history (
    id TEXT PRIMARY KEY,
    card_id TEXT NOT NULL,
    reviewed_at TEXT NOT NULL,
    stage_before INTEGER NOT NULL,
    stage_after INTEGER NOT NULL,
    is_correct INTEGER NOT NULL,
    incorrect_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_history_reviewed_at ON review_history(reviewed_at);
CREATE INDEX IF NOT EXISTS idx_review_history_card_id ON review_history(card_id);

-- The 'daily_stats' table caches per-day totals of review_history.
CREATE TABLE IF NOT EXISTS daily_stats (
    date TEXT PRIMARY KEY,
    reviews_count INTEGER NOT NULL DEFAULT 0,
    correct_count INTEGER NOT NULL DEFAULT 0,
    incorrect_count INTEGER NOT NULL DEFAULT 0
);
`
