package constants

import "time"

// minimum time between two accepted writes for a throttled field
const ThrottleWindow = time.Second

// store collections and documents
const CollectionStates = "states"
const CollectionUser = "user"
const CollectionDisplay = "display"

const DocumentControlType = "control_type"
const DocumentConfig = "config"

// throttled fields
const FieldColor = "color"
const FieldBreatheSpeed = "breatheSpeed"
const FieldFlashSpeed = "flashSpeed"

// display document fields
const FieldPattern = "pattern"
const FieldStartTime = "startTime"
const FieldStopTime = "stopTime"

// state document fields
const FieldType = "type"

const MinBreatheSpeed = 10
const MaxBreatheSpeed = 120
const MinFlashSpeed = 200
const MaxFlashSpeed = 500

// format used when writing schedule times
const ScheduleTimeFormat = "15:04"

// header carrying the id of the writing client instance
const ClientIDHeader = "X-Glow-Client"
