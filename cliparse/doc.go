// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Environment variables are read first (main loads a .env file before this),
then CLI flags override them.

# Settings

	flag               env              default
	-p                 PORT             3318
	-d                 DATABASE_URL     fundgate.db for sqlite
	-t                 DATABASE_TYPE    sqlite (sqlite, postgres, memory)
	-token-secret      TOKEN_SECRET     required
	-token-ttl         TOKEN_TTL        24h
	-redis             REDIS_URL        disabled
	-redis-channel     REDIS_CHANNEL    fundgate.events
	-kafka-brokers     KAFKA_BROKERS    disabled (comma list)
	-kafka-topic       KAFKA_TOPIC      fundgate.events
	-publish-timeout   PUBLISH_TIMEOUT  5s
	-issue-token       (flag only)      print a token and exit

# Validation

ParseFlags returns an error if:

  - TOKEN_SECRET is missing
  - the database type is unknown
  - postgres is selected without DATABASE_URL
  - Kafka brokers are set without a topic

With -issue-token only the token settings are checked.
*/
package cliparse
