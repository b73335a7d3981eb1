package database

const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS user_profiles (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    stripe_customer_id TEXT UNIQUE,
    subscription_tier TEXT NOT NULL DEFAULT 'free'
        CHECK (subscription_tier IN ('free', 'pro_creator', 'ultimate_bundle')),
    subscription_status TEXT NOT NULL DEFAULT 'inactive'
        CHECK (subscription_status IN ('inactive', 'active', 'past_due', 'cancelled')),
    optk_balance NUMERIC(38, 9) NOT NULL DEFAULT 0 CHECK (optk_balance >= 0),
    total_spent NUMERIC(38, 2) NOT NULL DEFAULT 0 CHECK (total_spent >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES user_profiles(id),
    stripe_subscription_id TEXT NOT NULL UNIQUE,
    plan_type TEXT NOT NULL,
    status TEXT NOT NULL,
    current_period_start TIMESTAMPTZ,
    current_period_end TIMESTAMPTZ,
    cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
    provider_updated_at TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS ix_subscriptions_user ON subscriptions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS payments (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES user_profiles(id),
    stripe_payment_intent_id TEXT NOT NULL UNIQUE,
    amount NUMERIC(38, 2) NOT NULL CHECK (amount > 0),
    currency TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('pending', 'succeeded', 'failed')),
    description TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tokens (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    creator_id UUID NOT NULL REFERENCES user_profiles(id),
    name TEXT NOT NULL,
    symbol TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    total_supply NUMERIC(38, 0) NOT NULL CHECK (total_supply > 0),
    decimals INT NOT NULL DEFAULT 9,
    contract_address TEXT NOT NULL UNIQUE,
    liquidity_sol NUMERIC(38, 9) NOT NULL DEFAULT 0,
    liquidity_tokens NUMERIC(38, 9) NOT NULL DEFAULT 0,
    price NUMERIC(38, 18) NOT NULL DEFAULT 0,
    market_cap NUMERIC(38, 9) NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active')),
    logo_url TEXT,
    website TEXT,
    twitter TEXT,
    telegram TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS ix_tokens_creator ON tokens (creator_id);

CREATE TABLE IF NOT EXISTS mining_records (
    user_id UUID PRIMARY KEY REFERENCES user_profiles(id),
    pool_name TEXT NOT NULL DEFAULT 'OptikPool',
    status TEXT NOT NULL DEFAULT 'inactive' CHECK (status IN ('active', 'inactive')),
    hash_rate NUMERIC(38, 6) NOT NULL DEFAULT 0,
    earnings_today NUMERIC(38, 9) NOT NULL DEFAULT 0 CHECK (earnings_today >= 0),
    total_earnings NUMERIC(38, 9) NOT NULL DEFAULT 0,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES user_profiles(id),
    token_id UUID REFERENCES tokens(id),
    type TEXT NOT NULL CHECK (type IN ('buy', 'sell', 'mining_reward', 'stake')),
    amount NUMERIC(38, 9) NOT NULL,
    price NUMERIC(38, 18) NOT NULL DEFAULT 0,
    total_value NUMERIC(38, 9) NOT NULL,
    fee NUMERIC(38, 9),
    tx_hash TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'completed',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS ix_transactions_user ON transactions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS webhook_events (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    provider_created_at TIMESTAMPTZ NOT NULL,
    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_chat_messages_session ON chat_messages (session_id, id);
CREATE INDEX IF NOT EXISTS ix_chat_messages_expires ON chat_messages (expires_at);
`
