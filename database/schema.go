package database

const visitorsTableSQL = `
CREATE TABLE visitors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	purpose TEXT NOT NULL,
	intended_unit TEXT NOT NULL,
	vehicle_number TEXT,
	entry_time TEXT,
	exit_time TEXT,
	approval_status TEXT NOT NULL DEFAULT 'PENDING' CHECK (approval_status IN ('PENDING', 'APPROVED', 'DENIED')),
	approved_by TEXT,
	approval_time TEXT,
	denial_reason TEXT,
	risk_score REAL NOT NULL DEFAULT 0,
	flagged BOOLEAN NOT NULL DEFAULT FALSE,
	sync_status TEXT NOT NULL DEFAULT 'LOCAL' CHECK (sync_status IN ('LOCAL', 'SYNCED', 'CONFLICT')),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const domesticStaffTableSQL = `
CREATE TABLE domestic_staff (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	address TEXT,
	emergency_contact TEXT,
	service_type TEXT NOT NULL CHECK (service_type IN ('MAID', 'COOK', 'DRIVER', 'GARDENER', 'SECURITY', 'OTHER')),
	authorized_units TEXT NOT NULL DEFAULT '[]',
	work_schedule TEXT NOT NULL DEFAULT '{}',
	access_code TEXT NOT NULL UNIQUE,
	biometric_id TEXT,
	start_date TEXT NOT NULL,
	end_date TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	last_entry TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const riskAssessmentsTableSQL = `
CREATE TABLE risk_assessments (
	id TEXT PRIMARY KEY,
	visitor_id TEXT NOT NULL,
	assessment_time TEXT NOT NULL,
	risk_score REAL NOT NULL,
	risk_level TEXT NOT NULL CHECK (risk_level IN ('LOW', 'MEDIUM', 'HIGH', 'CRITICAL')),
	frequency_score REAL NOT NULL DEFAULT 0,
	timing_score REAL NOT NULL DEFAULT 0,
	behavior_score REAL NOT NULL DEFAULT 0,
	historical_score REAL NOT NULL DEFAULT 0,
	anomalies TEXT NOT NULL DEFAULT '[]',
	explanation TEXT NOT NULL DEFAULT '{}',
	confidence REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	FOREIGN KEY (visitor_id) REFERENCES visitors(id) ON DELETE CASCADE
)`

const deliveryPersonnelTableSQL = `
CREATE TABLE delivery_personnel (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	company_name TEXT NOT NULL,
	delivery_type TEXT NOT NULL,
	recipient_unit TEXT NOT NULL,
	recipient_name TEXT NOT NULL,
	expected_delivery_time TEXT,
	actual_delivery_time TEXT,
	access_code TEXT,
	access_granted_at TEXT,
	access_expires_at TEXT,
	delivery_status TEXT NOT NULL DEFAULT 'PENDING' CHECK (delivery_status IN ('PENDING', 'IN_PROGRESS', 'COMPLETED', 'FAILED')),
	notes TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const emergencyLogsTableSQL = `
CREATE TABLE emergency_logs (
	id TEXT PRIMARY KEY,
	emergency_type TEXT NOT NULL,
	activated_by TEXT NOT NULL,
	activation_time TEXT NOT NULL,
	deactivation_time TEXT,
	deactivated_by TEXT,
	override_reason TEXT,
	affected_entries TEXT NOT NULL DEFAULT '[]',
	notes TEXT,
	created_at TEXT NOT NULL
)`

const auditLogsTableSQL = `
CREATE TABLE audit_logs (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK (action IN ('CREATE', 'UPDATE', 'DELETE', 'APPROVE', 'DENY', 'OVERRIDE')),
	performed_by TEXT NOT NULL,
	old_values TEXT,
	new_values TEXT,
	ip_address TEXT,
	user_agent TEXT,
	timestamp TEXT NOT NULL
)`

const indexesSQL = `
CREATE INDEX IF NOT EXISTS idx_visitors_phone ON visitors(phone_number);
CREATE INDEX IF NOT EXISTS idx_visitors_unit ON visitors(intended_unit);
CREATE INDEX IF NOT EXISTS idx_visitors_status ON visitors(approval_status);
CREATE INDEX IF NOT EXISTS idx_visitors_entry_time ON visitors(entry_time);
CREATE INDEX IF NOT EXISTS idx_visitors_risk_score ON visitors(risk_score);
CREATE INDEX IF NOT EXISTS idx_visitors_created_at ON visitors(created_at);
CREATE INDEX IF NOT EXISTS idx_staff_phone ON domestic_staff(phone_number);
CREATE INDEX IF NOT EXISTS idx_staff_service_type ON domestic_staff(service_type);
CREATE INDEX IF NOT EXISTS idx_staff_active ON domestic_staff(active);
CREATE INDEX IF NOT EXISTS idx_staff_access_code ON domestic_staff(access_code);
CREATE INDEX IF NOT EXISTS idx_risk_visitor_id ON risk_assessments(visitor_id);
CREATE INDEX IF NOT EXISTS idx_risk_level ON risk_assessments(risk_level);
CREATE INDEX IF NOT EXISTS idx_risk_score ON risk_assessments(risk_score);
CREATE INDEX IF NOT EXISTS idx_risk_assessment_time ON risk_assessments(assessment_time);
CREATE INDEX IF NOT EXISTS idx_delivery_phone ON delivery_personnel(phone_number);
CREATE INDEX IF NOT EXISTS idx_delivery_company ON delivery_personnel(company_name);
CREATE INDEX IF NOT EXISTS idx_delivery_recipient ON delivery_personnel(recipient_unit);
CREATE INDEX IF NOT EXISTS idx_delivery_status ON delivery_personnel(delivery_status);
CREATE INDEX IF NOT EXISTS idx_delivery_time ON delivery_personnel(expected_delivery_time);
CREATE INDEX IF NOT EXISTS idx_emergency_type ON emergency_logs(emergency_type);
CREATE INDEX IF NOT EXISTS idx_emergency_activation ON emergency_logs(activation_time);
CREATE INDEX IF NOT EXISTS idx_emergency_activated_by ON emergency_logs(activated_by);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_logs(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_logs(action);
CREATE INDEX IF NOT EXISTS idx_audit_performed_by ON audit_logs(performed_by);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp);
`

// Migrations is the full ordered schema history. The index migration comes
// last and assumes every table already exists.
func Migrations() []Migration {
	return []Migration{
		{Name: "001_create_visitors_table", SQL: visitorsTableSQL},
		{Name: "002_create_domestic_staff_table", SQL: domesticStaffTableSQL},
		{Name: "003_create_risk_assessments_table", SQL: riskAssessmentsTableSQL},
		{Name: "004_create_delivery_personnel_table", SQL: deliveryPersonnelTableSQL},
		{Name: "005_create_emergency_logs_table", SQL: emergencyLogsTableSQL},
		{Name: "006_create_audit_logs_table", SQL: auditLogsTableSQL},
		{Name: "007_create_indexes", SQL: indexesSQL},
	}
}
