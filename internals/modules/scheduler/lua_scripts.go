package scheduler

// scheduleKey = "watchtower:schedule"
// inflightKey = "watchtower:inflight"

// claimDueJobsScript pops due members and parks them in the inflight set
// under a visibility deadline. WITHSCORES so the original due time travels
// with each member; the executor needs it to reschedule without drift.
const claimDueJobsScript = `
local scheduleKey = KEYS[1]
local inflightKey = KEYS[2]

local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local visibilityTimeout = tonumber(ARGV[3])

local items = redis.call("ZRANGEBYSCORE", scheduleKey, "-inf", now, "WITHSCORES", "LIMIT", 0, limit)

for i = 1, #items, 2 do
    local member = items[i]
    redis.call("ZREM", scheduleKey, member)
    redis.call("ZADD", inflightKey, now + visibilityTimeout, member)
end

return items
`

// reclaimJobsScript moves members whose visibility deadline passed back into
// the schedule set, due immediately. Covers workers that died mid-job.
const reclaimJobsScript = `
local inflightKey = KEYS[1]
local scheduleKey = KEYS[2]

local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

local items = redis.call("ZRANGEBYSCORE", inflightKey, "-inf", now, "LIMIT", 0, limit)

for i, member in ipairs(items) do
    redis.call("ZREM", inflightKey, member)
    redis.call("ZADD", scheduleKey, now, member)
end

return #items
`
