package sqlite

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE posts (
				id TEXT PRIMARY KEY,
				author_id TEXT NOT NULL,
				category_id TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL DEFAULT '',
				excerpt TEXT,
				workflow_state TEXT NOT NULL CHECK (workflow_state IN ('DRAFT', 'REVIEW', 'APPROVED', 'PUBLISHED', 'ARCHIVED', 'REJECTED')),
				status TEXT NOT NULL DEFAULT 'draft',
				published_at DATETIME,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			CREATE INDEX idx_posts_workflow_state ON posts(workflow_state);
			CREATE INDEX idx_posts_author_id ON posts(author_id);
			CREATE INDEX idx_posts_updated_at ON posts(updated_at);

			CREATE TABLE workflow_transitions (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				from_state TEXT NOT NULL,
				to_state TEXT NOT NULL,
				action TEXT NOT NULL,
				user_id TEXT NOT NULL,
				comment TEXT,
				occurred_at DATETIME NOT NULL
			);

			CREATE INDEX idx_workflow_transitions_post ON workflow_transitions(post_id, occurred_at, seq);
			CREATE INDEX idx_workflow_transitions_occurred_at ON workflow_transitions(occurred_at);
		`,
		2: `
			CREATE TABLE content_versions (
				id TEXT PRIMARY KEY,
				post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				version INTEGER NOT NULL,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				excerpt TEXT,
				metadata TEXT NOT NULL DEFAULT '{}',
				created_by TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT 0,
				UNIQUE (post_id, version)
			);

			CREATE UNIQUE INDEX idx_content_versions_active ON content_versions(post_id) WHERE is_active;
		`,
	}
}
