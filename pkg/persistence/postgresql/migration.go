package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create posts table
			CREATE TABLE posts (
				id VARCHAR(255) PRIMARY KEY,
				author_id VARCHAR(255) NOT NULL,
				category_id VARCHAR(255) NOT NULL DEFAULT '',
				title TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL DEFAULT '',
				excerpt TEXT,
				workflow_state VARCHAR(20) NOT NULL CHECK (workflow_state IN ('DRAFT', 'REVIEW', 'APPROVED', 'PUBLISHED', 'ARCHIVED', 'REJECTED')),
				status VARCHAR(20) NOT NULL DEFAULT 'draft',
				published_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_posts_workflow_state ON posts(workflow_state);
			CREATE INDEX idx_posts_author_id ON posts(author_id);
			CREATE INDEX idx_posts_updated_at ON posts(updated_at);

			-- Append-only transition log; seq breaks timestamp ties
			CREATE TABLE workflow_transitions (
				seq BIGSERIAL PRIMARY KEY,
				id VARCHAR(255) NOT NULL UNIQUE,
				post_id VARCHAR(255) NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				from_state VARCHAR(20) NOT NULL,
				to_state VARCHAR(20) NOT NULL,
				action VARCHAR(30) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				comment TEXT,
				occurred_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_transitions_post ON workflow_transitions(post_id, occurred_at DESC, seq DESC);
			CREATE INDEX idx_workflow_transitions_occurred_at ON workflow_transitions(occurred_at);
		`,
		2: `
			-- Migration 2: content versions
			CREATE TABLE content_versions (
				id VARCHAR(255) PRIMARY KEY,
				post_id VARCHAR(255) NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				version INTEGER NOT NULL,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				excerpt TEXT,
				metadata JSONB NOT NULL DEFAULT '{}',
				created_by VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				UNIQUE (post_id, version)
			);

			-- At most one active version per post
			CREATE UNIQUE INDEX idx_content_versions_active ON content_versions(post_id) WHERE is_active;
		`,
	}
}
