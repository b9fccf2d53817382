package inject

// The companion sources below are rendered with identity-scoped paths baked in
// as literals. The simulator runtime never reads environment variables, so a
// renamed project needs regeneration and re-injection, not just a restart.

// loggerTemplate redirects print() into the project log file. The file is
// truncated with a banner exactly once per simulator start; every later line
// is appended. StartBanner must match the first line written here.
const loggerTemplate = `-- MCP Logger: redirects print() to a file the MCP server can read
local mcp_log_file = "{{.LogFile}}"
local original_print = print

-- Truncate on simulator start so each run begins with a clean log
do
    local file = io.open(mcp_log_file, "w")
    if file then
        file:write("{{.Banner}}\n")
        file:close()
    end
end

_G.print = function(...)
    local args = {...}
    local message = ""
    for i, v in ipairs(args) do
        if i > 1 then message = message .. "\t" end
        message = message .. tostring(v)
    end

    original_print(...)

    local file = io.open(mcp_log_file, "a")
    if file then
        file:write(message .. "\n")
        file:flush()
        file:close()
    end
end

print("[MCP] Logging initialized - output will be captured")
`

// screenshotTemplate polls the screenshot control file and maintains the
// recording window. Commands: "now" captures one frame to the latest sentinel,
// a positive number of seconds sets the window end, "0" stops immediately.
// The window is one mutable end timestamp; a later command replaces it.
const screenshotTemplate = `-- MCP Screenshot: periodic capture while recording, on-demand via control file
local lfs = require("lfs")
local screenshotDir = "{{.ScreenshotDir}}"
local controlFile = "{{.ControlFile}}"
local captureInterval = 100
local screenshotCount = 0
local recordingEndTime = 0

local function readControlFile()
    local file = io.open(controlFile, "r")
    if file then
        local content = file:read("*all")
        file:close()
        os.remove(controlFile)
        return content
    end
    return nil
end

-- Empty the directory on start; numbering restarts at 1 for each run
local function clearScreenshotDir()
    lfs.mkdir(screenshotDir)
    for file in lfs.dir(screenshotDir) do
        if file ~= "." and file ~= ".." then
            os.remove(screenshotDir .. "/" .. file)
        end
    end
end

local function isRecording()
    return system.getTimer() < recordingEndTime
end

local function copyFile(src, dst)
    local infile = io.open(src, "rb")
    if not infile then return false end
    local content = infile:read("*all")
    infile:close()

    local outfile = io.open(dst, "wb")
    if not outfile then return false end
    outfile:write(content)
    outfile:close()
    return true
end

local function saveFrame(filename, fullPath)
    display.save(display.currentStage, {
        filename = filename,
        baseDir = system.TemporaryDirectory,
        captureOffscreenArea = false,
        isFullResolution = false
    })
    local tempPath = system.pathForFile(filename, system.TemporaryDirectory)
    if tempPath and copyFile(tempPath, fullPath) then
        os.remove(tempPath)
        return true
    end
    return false
end

local function captureScreen()
    if not isRecording() then return end
    screenshotCount = screenshotCount + 1
    local filename = string.format("screenshot_%03d.jpg", screenshotCount)
    saveFrame(filename, screenshotDir .. "/" .. filename)
end

local function captureOnDemand()
    if saveFrame("screenshot_latest.jpg", screenshotDir .. "/screenshot_latest.jpg") then
        print("[MCP Screenshot] On-demand capture saved")
    end
end

local function checkControl()
    local content = readControlFile()
    if not content then return end

    if content == "now" then
        captureOnDemand()
        return
    end

    local duration = tonumber(content)
    if duration == nil then
        return
    elseif duration > 0 then
        recordingEndTime = system.getTimer() + (duration * 1000)
        print("[MCP Screenshot] Recording for " .. duration .. " seconds (continuing from #" .. (screenshotCount + 1) .. ")")
    elseif duration == 0 then
        recordingEndTime = 0
        print("[MCP Screenshot] Recording stopped at screenshot #" .. screenshotCount)
    end
end

clearScreenshotDir()
print("[MCP Screenshot] Module initialized - screenshots saved to: " .. screenshotDir)

timer.performWithDelay(captureInterval, captureScreen, 0)
timer.performWithDelay(500, checkControl, 0)
`

// touchTemplate writes the display info file at startup and replays tap/drag
// commands from the touch control file against the current stage.
const touchTemplate = `-- MCP Touch: simulates touch events from control file commands
local controlFile = "{{.ControlFile}}"
local infoFile = "{{.InfoFile}}"
local checkInterval = 100
local json = require("json")

local touchTarget = nil
local touchStartX, touchStartY = 0, 0

local function readControlFile()
    local file = io.open(controlFile, "r")
    if file then
        local content = file:read("*all")
        file:close()
        os.remove(controlFile)
        return content
    end
    return nil
end

local function parseCommand(content)
    local parts = {}
    for part in string.gmatch(content, "[^,]+") do
        table.insert(parts, part)
    end
    return parts
end

local function hasTouchListener(obj)
    if obj.touch_handler then return true end
    if obj._tableListeners and obj._tableListeners.touch then return true end
    if obj._functionListeners and obj._functionListeners.touch then return true end
    return false
end

-- Topmost touchable object at (x, y); children with higher index render on top
local function findHitObject(group, x, y)
    if not group or not group.numChildren then return nil end

    for i = group.numChildren, 1, -1 do
        local child = group[i]
        if child and child.isVisible ~= false then
            if child.numChildren then
                local hit = findHitObject(child, x, y)
                if hit then return hit end
            end

            if child.contentBounds then
                local bounds = child.contentBounds
                if x >= bounds.xMin and x <= bounds.xMax and
                   y >= bounds.yMin and y <= bounds.yMax then
                    if hasTouchListener(child) then
                        return child
                    end
                end
            end
        end
    end
    return nil
end

local function dispatchTouch(phase, x, y)
    local target = nil

    if phase == "began" then
        target = findHitObject(display.getCurrentStage(), x, y)
        if target then
            touchTarget = target
            touchStartX, touchStartY = x, y
        end
    else
        target = touchTarget
        if phase == "ended" then
            touchTarget = nil
        end
    end

    local event = {
        name = "touch",
        phase = phase,
        x = x,
        y = y,
        xStart = touchStartX or x,
        yStart = touchStartY or y,
        time = system.getTimer(),
        target = target
    }

    if target then
        target:dispatchEvent(event)
    else
        Runtime:dispatchEvent(event)
    end
end

local function writeDisplayInfo()
    local info = {
        contentWidth = display.contentWidth,
        contentHeight = display.contentHeight,
        actualContentWidth = display.actualContentWidth,
        actualContentHeight = display.actualContentHeight,
        screenOriginX = display.screenOriginX,
        screenOriginY = display.screenOriginY
    }

    local file = io.open(infoFile, "w")
    if file then
        file:write(json.encode(info))
        file:close()
    end
end

local function executeTap(x, y)
    print("[MCP Touch] Tap at (" .. x .. ", " .. y .. ")")
    dispatchTouch("began", x, y)
    timer.performWithDelay(50, function()
        dispatchTouch("ended", x, y)
    end)
end

local function executeDrag(x1, y1, x2, y2, duration)
    print("[MCP Touch] Drag from (" .. x1 .. ", " .. y1 .. ") to (" .. x2 .. ", " .. y2 .. ") over " .. duration .. "ms")

    local steps = math.max(1, math.floor(duration / 16))
    local stepDelay = duration / steps

    dispatchTouch("began", x1, y1)

    for i = 1, steps do
        timer.performWithDelay(math.floor(stepDelay * i), function()
            local t = i / steps
            local x = x1 + (x2 - x1) * t
            local y = y1 + (y2 - y1) * t
            dispatchTouch("moved", x, y)

            if i == steps then
                timer.performWithDelay(16, function()
                    dispatchTouch("ended", x2, y2)
                end)
            end
        end)
    end
end

local function checkControl()
    local content = readControlFile()
    if not content then return end

    local parts = parseCommand(content)
    local cmd = parts[1]

    if cmd == "tap" then
        local x = tonumber(parts[2])
        local y = tonumber(parts[3])
        if x and y then
            executeTap(x, y)
        else
            print("[MCP Touch] Invalid tap coordinates")
        end
    elseif cmd == "drag" then
        local x1 = tonumber(parts[2])
        local y1 = tonumber(parts[3])
        local x2 = tonumber(parts[4])
        local y2 = tonumber(parts[5])
        local dur = tonumber(parts[6])
        if x1 and y1 and x2 and y2 and dur then
            executeDrag(x1, y1, x2, y2, dur)
        else
            print("[MCP Touch] Invalid drag parameters")
        end
    else
        print("[MCP Touch] Unknown command: " .. tostring(cmd))
    end
end

writeDisplayInfo()
print("[MCP Touch] Module initialized - listening for touch commands")

timer.performWithDelay(checkInterval, checkControl, 0)
`
