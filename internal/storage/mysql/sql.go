package mysql

// -----------------------------------------------------------------------------
// ELIGIBILITY CHAIN
// -----------------------------------------------------------------------------

const findEnrollmentByUserSQL = `
SELECT id, user_id, name, created_at, updated_at
FROM enrollments
WHERE user_id = ?
ORDER BY id
LIMIT 1
`

// An enrollment is expected to own one ticket; the oldest wins if there are more.
const findTicketByEnrollmentSQL = `
SELECT
  t.id,
  t.enrollment_id,
  t.ticket_type_id,
  t.status,
  t.created_at,
  t.updated_at,
  tt.id,
  tt.name,
  tt.price,
  tt.is_remote,
  tt.includes_hotel
FROM tickets t
JOIN ticket_types tt ON tt.id = t.ticket_type_id
WHERE t.enrollment_id = ?
ORDER BY t.id
LIMIT 1
`

const findSessionByTokenSQL = `
SELECT id, user_id, token, created_at
FROM sessions
WHERE token = ?
LIMIT 1
`

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const listHotelsSQL = `
SELECT id, name, image, created_at, updated_at
FROM hotels
ORDER BY id
`

const getHotelSQL = `
SELECT id, name, image, created_at, updated_at
FROM hotels
WHERE id = ?
`

const listRoomsSQL = `
SELECT id, name, capacity, hotel_id, created_at, updated_at
FROM rooms
WHERE hotel_id = ?
ORDER BY id
`
