package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	selectPowerFeedBase = `SELECT id, name, rack_id, rated_kw, created_at, updated_at FROM power_feeds`

	latestPowerReadingQuery = `SELECT id, feed_id, power_kw, recorded_at
FROM power_readings
WHERE feed_id = ?
ORDER BY recorded_at DESC, id DESC
LIMIT 1`

	selectWarrantyDevicesQuery = `SELECT id, name, rack_id, u_height, warranty_expires_at, created_at, updated_at
FROM devices
WHERE warranty_expires_at IS NOT NULL
ORDER BY id`

	selectRackOccupancyQuery = `SELECT r.id, r.name, r.site, r.u_height, r.created_at, r.updated_at,
       COALESCE(SUM(d.u_height), 0) AS occupied_units
FROM racks r
LEFT JOIN devices d ON d.rack_id = r.id
GROUP BY r.id
ORDER BY r.id`
)

// ListPowerFeeds returns every configured power feed.
func (db *DB) ListPowerFeeds(ctx context.Context) ([]*models.PowerFeed, error) {
	rows, err := db.readDB.QueryContext(ctx, selectPowerFeedBase+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list power feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*models.PowerFeed
	for rows.Next() {
		var (
			feed   models.PowerFeed
			rackID sql.NullInt64
		)
		if err := rows.Scan(&feed.ID, &feed.Name, &rackID, &feed.RatedKW, &feed.CreatedAt, &feed.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan power feed: %w", err)
		}
		if rackID.Valid {
			feed.RackID = &rackID.Int64
		}
		feeds = append(feeds, &feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating power feeds: %w", err)
	}
	return feeds, nil
}

// LatestPowerReading fetches the most recent reading for a feed. Returns
// models.ErrNotFound when the feed has no readings at all.
func (db *DB) LatestPowerReading(ctx context.Context, feedID int64) (*models.PowerReading, error) {
	var reading models.PowerReading
	err := db.readDB.QueryRowContext(ctx, latestPowerReadingQuery, feedID).Scan(
		&reading.ID, &reading.FeedID, &reading.PowerKW, &reading.RecordedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch latest power reading: %w", err)
	}
	return &reading, nil
}

// InsertPowerReading appends a power sample for a feed.
func (db *DB) InsertPowerReading(ctx context.Context, reading *models.PowerReading) error {
	if reading == nil {
		return fmt.Errorf("reading payload is required")
	}
	recordedAt := reading.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	row := db.writeDB.QueryRowContext(ctx,
		`INSERT INTO power_readings (feed_id, power_kw, recorded_at) VALUES (?, ?, ?) RETURNING id`,
		reading.FeedID, reading.PowerKW, recordedAt,
	)
	if err := row.Scan(&reading.ID); err != nil {
		return fmt.Errorf("failed to insert power reading: %w", err)
	}
	reading.RecordedAt = recordedAt
	return nil
}

// ListDevicesWithWarranty returns devices that carry a warranty expiry
// date. Devices without one are invisible to warranty rules.
func (db *DB) ListDevicesWithWarranty(ctx context.Context) ([]*models.Device, error) {
	rows, err := db.readDB.QueryContext(ctx, selectWarrantyDevicesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices with warranty: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var (
			device    models.Device
			rackID    sql.NullInt64
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&device.ID, &device.Name, &rackID, &device.UHeight, &expiresAt, &device.CreatedAt, &device.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		if rackID.Valid {
			device.RackID = &rackID.Int64
		}
		if expiresAt.Valid {
			device.WarrantyExpiresAt = &expiresAt.Time
		}
		devices = append(devices, &device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// ListRackOccupancy returns every rack with the summed U-heights of its
// installed devices.
func (db *DB) ListRackOccupancy(ctx context.Context) ([]*models.RackOccupancy, error) {
	rows, err := db.readDB.QueryContext(ctx, selectRackOccupancyQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list rack occupancy: %w", err)
	}
	defer rows.Close()

	var racks []*models.RackOccupancy
	for rows.Next() {
		var occ models.RackOccupancy
		if err := rows.Scan(&occ.ID, &occ.Name, &occ.Site, &occ.UHeight, &occ.CreatedAt, &occ.UpdatedAt, &occ.OccupiedUnits); err != nil {
			return nil, fmt.Errorf("failed to scan rack occupancy: %w", err)
		}
		racks = append(racks, &occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rack occupancy: %w", err)
	}
	return racks, nil
}

// InsertRack, InsertDevice, and InsertPowerFeed back the seed command.

func (db *DB) InsertRack(ctx context.Context, rack *models.Rack) error {
	row := db.writeDB.QueryRowContext(ctx,
		`INSERT INTO racks (name, site, u_height) VALUES (?, ?, ?) RETURNING id, created_at, updated_at`,
		rack.Name, rack.Site, rack.UHeight,
	)
	if err := row.Scan(&rack.ID, &rack.CreatedAt, &rack.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert rack: %w", err)
	}
	return nil
}

func (db *DB) InsertDevice(ctx context.Context, device *models.Device) error {
	var rackID interface{}
	if device.RackID != nil {
		rackID = *device.RackID
	}
	var warranty interface{}
	if device.WarrantyExpiresAt != nil {
		warranty = *device.WarrantyExpiresAt
	}
	row := db.writeDB.QueryRowContext(ctx,
		`INSERT INTO devices (name, rack_id, u_height, warranty_expires_at) VALUES (?, ?, ?, ?) RETURNING id, created_at, updated_at`,
		device.Name, rackID, device.UHeight, warranty,
	)
	if err := row.Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

func (db *DB) InsertPowerFeed(ctx context.Context, feed *models.PowerFeed) error {
	var rackID interface{}
	if feed.RackID != nil {
		rackID = *feed.RackID
	}
	row := db.writeDB.QueryRowContext(ctx,
		`INSERT INTO power_feeds (name, rack_id, rated_kw) VALUES (?, ?, ?) RETURNING id, created_at, updated_at`,
		feed.Name, rackID, feed.RatedKW,
	)
	if err := row.Scan(&feed.ID, &feed.CreatedAt, &feed.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert power feed: %w", err)
	}
	return nil
}
